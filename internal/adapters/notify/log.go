package notify

import (
	"context"

	"pet-health-records/internal/platform/logger"
)

// Log no entrega nada: deja el mensaje en el log (modo dev).
type Log struct {
	log logger.Logger
}

func NewLog(l logger.Logger) *Log {
	if l == nil {
		l = logger.Nop()
	}
	return &Log{log: l}
}

func (s *Log) Send(ctx context.Context, destination, message string) error {
	s.log.Info("notification (dev sender)", map[string]any{
		"destination": destination,
		"message":     message,
	})
	return nil
}
