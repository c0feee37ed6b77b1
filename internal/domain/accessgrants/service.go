package accessgrants

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"pet-health-records/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("access grant not found")
	ErrOTPUnavailable = errors.New("otp already used or expired")

	// ErrPetNotFound lo devuelve PetOwnerLookup cuando la mascota no existe.
	ErrPetNotFound = errors.New("pet not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID         string
	ClinicID      string
	DoctorID      string
	OwnerUserID   string
	DurationHours int
	OTPID         string
	Purpose       string
}

// Create arma el grant activo y lo persiste consumiendo el OTP en la misma operación.
func (s *Service) Create(ctx context.Context, in CreateInput) (Grant, error) {
	petID := strings.TrimSpace(in.PetID)
	clinicID := strings.TrimSpace(in.ClinicID)
	ownerID := strings.TrimSpace(in.OwnerUserID)
	otpID := strings.TrimSpace(in.OTPID)

	if petID == "" || clinicID == "" || ownerID == "" || otpID == "" {
		return Grant{}, ErrInvalidInput
	}
	if in.DurationHours < MinDurationHours || in.DurationHours > MaxDurationHours {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	g := Grant{
		ID:          uuid.NewString(),
		PetID:       petID,
		ClinicID:    clinicID,
		DoctorID:    strings.TrimSpace(in.DoctorID),
		OwnerUserID: ownerID,
		GrantedAt:   now,
		ExpiresAt:   now.Add(time.Duration(in.DurationHours) * time.Hour),
		Status:      StatusActive,
		OTPID:       otpID,
		Purpose:     strings.TrimSpace(in.Purpose),
		UpdatedAt:   now,
	}

	if err := s.repo.CreateConsumingOTP(ctx, g, otpID, now); err != nil {
		return Grant{}, err
	}
	metrics.GrantsCreated.Inc()
	return g, nil
}

// Revoke pasa el grant a revoked. Solo el dueño que lo otorgó puede revocarlo.
// Idempotente: revocar un grant ya revocado devuelve el grant sin cambios.
func (s *Service) Revoke(ctx context.Context, grantID, ownerUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerUserID = strings.TrimSpace(ownerUserID)

	if grantID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, err
	}

	if g.OwnerUserID != ownerUserID {
		return Grant{}, ErrForbidden
	}

	// Idempotente
	if g.Status == StatusRevoked {
		return g, nil
	}

	now := s.now()
	g.Status = StatusRevoked
	g.UpdatedAt = now
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	metrics.GrantsRevoked.Inc()
	return g, nil
}

func (s *Service) GetByID(ctx context.Context, grantID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, grantID)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Grant, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Service) ListByClinic(ctx context.Context, clinicID string) ([]Grant, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)
	return items, nil
}

// ActiveForPet devuelve los grants cuyo estado efectivo es active a "ahora".
func (s *Service) ActiveForPet(ctx context.Context, petID string) ([]Grant, error) {
	items, err := s.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Grant, 0, len(items))
	for _, g := range items {
		if IsActive(g, now) {
			out = append(out, g)
		}
	}
	return out, nil
}

// SweepExpired materializa el vencimiento en el campo almacenado.
// Es opcional: la verificación lazy (EffectiveStatus) sigue siendo la fuente de verdad.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.MarkExpired(ctx, s.now())
}

// Now expone el reloj del servicio para calcular estados efectivos en handlers.
func (s *Service) Now() time.Time {
	return s.now()
}

func sortNewestFirst(items []Grant) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GrantedAt.After(items[j].GrantedAt)
	})
}
