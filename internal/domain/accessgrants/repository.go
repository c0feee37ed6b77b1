package accessgrants

import (
	"context"
	"time"
)

type Repository interface {
	// CreateConsumingOTP marca el OTP otpID como usado (solo si seguía sin usar y
	// vigente a now) e inserta el grant en la misma unidad atómica.
	// Si el OTP ya no está disponible devuelve ErrOTPUnavailable y no inserta nada.
	CreateConsumingOTP(ctx context.Context, g Grant, otpID string, now time.Time) error

	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)
	ListByPet(ctx context.Context, petID string) ([]Grant, error)
	ListByClinic(ctx context.Context, clinicID string) ([]Grant, error)

	// MarkExpired persiste el estado expired en grants activos vencidos a now.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}
