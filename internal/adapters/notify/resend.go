package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/resendlabs/resend-go"
)

var ErrResendNotConfigured = errors.New("resend not configured")

// Resend entrega notificaciones por email.
type Resend struct {
	client    *resend.Client
	fromEmail string
	subject   string
}

type ResendConfig struct {
	APIKey    string
	FromEmail string

	BaseURL string // tests; vacío = api.resend.com
}

func NewResend(cfg ResendConfig) (*Resend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrResendNotConfigured
	}
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Resend{
		client:    client,
		fromEmail: cfg.FromEmail,
		subject:   "Historial clínico de tu mascota",
	}, nil
}

// Send ignora ctx: el cliente de resend no lo recibe.
func (r *Resend) Send(ctx context.Context, email, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &resend.SendEmailRequest{
		From:    r.fromEmail,
		To:      []string{email},
		Subject: r.subject,
		Text:    message,
		Html: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;"><p>%s</p></div>`,
			html.EscapeString(message)),
	}
	if _, err := r.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
