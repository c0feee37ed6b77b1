package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-health-records/internal/platform/httpclient"
)

const twilioBaseURL = "https://api.twilio.com"

var ErrTwilioNotConfigured = errors.New("twilio not configured")

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string

	BaseURL string // tests; vacío = api.twilio.com
	Timeout time.Duration
}

// Twilio envía SMS por la API REST (form + basic auth).
type Twilio struct {
	cfg    TwilioConfig
	client *httpclient.Client
}

func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" || strings.TrimSpace(cfg.From) == "" {
		return nil, ErrTwilioNotConfigured
	}
	base := cfg.BaseURL
	if base == "" {
		base = twilioBaseURL
	}
	c, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Twilio{cfg: cfg, client: c}, nil
}

func (t *Twilio) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", t.cfg.From)
	form.Set("Body", message)

	var out struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	err := t.client.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/2010-04-01/Accounts/" + url.PathEscape(t.cfg.AccountSID) + "/Messages.json",
		BasicAuth: &httpclient.BasicAuth{Username: t.cfg.AccountSID, Password: t.cfg.AuthToken},
		Form:      form,
	}, &out)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
