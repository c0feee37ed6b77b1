package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-health-records/internal/domain/accessgrants"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]accessgrants.Grant
	otps *OTPRepo
}

// NewAccessGrantsRepo recibe el repo de OTPs para consumir el código y crear el grant como una sola operación.
func NewAccessGrantsRepo(otps *OTPRepo) accessgrants.Repository {
	return &grantRepo{
		byID: make(map[string]accessgrants.Grant),
		otps: otps,
	}
}

func (r *grantRepo) CreateConsumingOTP(ctx context.Context, g accessgrants.Grant, otpID string, now time.Time) error {
	if g.ID == "" {
		return errors.New("grant id required")
	}

	// orden de locks: grants → otps
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps.mu.Lock()
	defer r.otps.mu.Unlock()

	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	if !r.otps.markUsedLocked(otpID, now) {
		return accessgrants.ErrOTPUnavailable
	}
	if ctx.Err() != nil {
		r.otps.restoreLocked(otpID)
		return ctx.Err()
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[g.ID]; !exists {
		return accessgrants.ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error) {
	return r.filter(func(g accessgrants.Grant) bool { return g.PetID == petID }), nil
}

func (r *grantRepo) ListByClinic(ctx context.Context, clinicID string) ([]accessgrants.Grant, error) {
	return r.filter(func(g accessgrants.Grant) bool { return g.ClinicID == clinicID }), nil
}

// MarkExpired persiste el estado expired de los grants activos vencidos a now.
func (r *grantRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, g := range r.byID {
		if g.Status != accessgrants.StatusActive || now.Before(g.ExpiresAt) {
			continue
		}
		g.Status = accessgrants.StatusExpired
		g.UpdatedAt = now
		r.byID[id] = g
		n++
	}
	return n, nil
}

func (r *grantRepo) filter(keep func(accessgrants.Grant) bool) []accessgrants.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}
