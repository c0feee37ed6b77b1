package notify

import (
	"context"
	"errors"
	"strings"

	port "pet-health-records/internal/ports/notify"
)

var ErrNoChannel = errors.New("no notification channel for destination")

// Router elige el canal según la forma del destino: email si tiene '@', SMS si empieza con '+'.
type Router struct {
	SMS   port.Sender
	Email port.Sender
}

func (r Router) Send(ctx context.Context, destination, message string) error {
	destination = strings.TrimSpace(destination)
	switch {
	case strings.Contains(destination, "@"):
		if r.Email == nil {
			return ErrNoChannel
		}
		return r.Email.Send(ctx, destination, message)
	case strings.HasPrefix(destination, "+"):
		if r.SMS == nil {
			return ErrNoChannel
		}
		return r.SMS.Send(ctx, destination, message)
	default:
		return ErrNoChannel
	}
}
