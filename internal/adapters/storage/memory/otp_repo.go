package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-health-records/internal/domain/otp"
)

// OTPRepo es exportado porque el repo de grants en memoria consume OTPs sobre él.
type OTPRepo struct {
	mu   sync.Mutex
	byID map[string]otp.OTP
}

func NewOTPRepo() *OTPRepo {
	return &OTPRepo{byID: make(map[string]otp.OTP)}
}

var _ otp.Repository = (*OTPRepo)(nil)

func (r *OTPRepo) Create(ctx context.Context, o otp.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID == "" {
		return errors.New("otp id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return errors.New("otp already exists")
	}
	r.byID[o.ID] = o
	return nil
}

func (r *OTPRepo) LatestActive(ctx context.Context, phone string, purpose otp.Purpose, subject string, now time.Time) (otp.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest otp.OTP
	found := false
	for _, o := range r.byID {
		if o.Phone != phone || o.Purpose != purpose || o.Subject != subject || !o.Usable(now) {
			continue
		}
		if !found || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
			found = true
		}
	}
	if !found {
		return otp.OTP{}, otp.ErrNotFound
	}
	return latest, nil
}

func (r *OTPRepo) MarkUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markUsedLocked(id, now), nil
}

func (r *OTPRepo) markUsedLocked(id string, now time.Time) bool {
	o, ok := r.byID[id]
	if !ok || !o.Usable(now) {
		return false
	}
	o.IsUsed = true
	r.byID[id] = o
	return true
}

// restoreLocked deshace un consumo cuando falla la operación que lo acompañaba.
func (r *OTPRepo) restoreLocked(id string) {
	if o, ok := r.byID[id]; ok {
		o.IsUsed = false
		r.byID[id] = o
	}
}

func (r *OTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, o := range r.byID {
		if o.ExpiresAt.Before(before) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
