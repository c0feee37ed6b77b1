package otp

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, o OTP) error

	// LatestActive devuelve el OTP más reciente (por CreatedAt) de (phone, purpose, subject)
	// que siga sin usar y vigente a now. ErrNotFound si no hay ninguno.
	LatestActive(ctx context.Context, phone string, purpose Purpose, subject string, now time.Time) (OTP, error)

	// MarkUsed marca el OTP como usado solo si seguía sin usar y vigente a now.
	// Devuelve false si otro canje ganó la carrera o el OTP venció.
	MarkUsed(ctx context.Context, id string, now time.Time) (bool, error)

	// DeleteExpired borra OTPs vencidos antes de before.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RateLimiter limita emisiones por teléfono (ventana fija).
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
