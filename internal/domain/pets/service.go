package pets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"pet-health-records/internal/domain/permissions"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound es el mismo sentinel que espera el evaluador de permisos.
	ErrNotFound = permissions.ErrPetNotFound
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
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	Microchip string
	WeightKg  *float64
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}

	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if !species.Valid() {
		return Pet{}, ErrInvalidInput
	}

	sex := SexUnknown
	if v := strings.TrimSpace(in.Sex); v != "" {
		sex = Sex(strings.ToLower(v))
		if !sex.Valid() {
			return Pet{}, ErrInvalidInput
		}
	}

	if in.WeightKg != nil && *in.WeightKg <= 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return Pet{}, ErrInvalidInput
	}

	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		Name:        strings.TrimSpace(in.Name),
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   in.BirthDate,
		Microchip:   strings.TrimSpace(in.Microchip),
		WeightKg:    in.WeightKg,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// PatchBirthDate distingue "no enviado" de "null" (limpiar).
type PatchBirthDate struct {
	Present bool
	Value   *time.Time
}

// UpdateProfileInput: nil = no tocar.
type UpdateProfileInput struct {
	Name      *string
	Species   *string
	Breed     *string
	Sex       *string
	BirthDate PatchBirthDate
	Microchip *string
	WeightKg  *float64
	Notes     *string
}

// UpdateProfile aplica un PATCH sobre el perfil. La autorización (profile:write)
// se resuelve antes, en el handler.
func (s *Service) UpdateProfile(ctx context.Context, petID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Species != nil {
		sp := Species(strings.ToLower(strings.TrimSpace(*in.Species)))
		if !sp.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Species = sp
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sx := Sex(strings.ToLower(strings.TrimSpace(*in.Sex)))
		if !sx.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Sex = sx
	}

	now := s.now()
	if in.BirthDate.Present {
		if in.BirthDate.Value != nil && in.BirthDate.Value.After(now) {
			return Pet{}, ErrInvalidInput
		}
		p.BirthDate = in.BirthDate.Value
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.WeightKg != nil {
		if *in.WeightKg <= 0 {
			return Pet{}, ErrInvalidInput
		}
		w := *in.WeightKg
		p.WeightKg = &w
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// ListByOwners junta las mascotas de varios dueños (mascotas compartidas por familia).
func (s *Service) ListByOwners(ctx context.Context, ownerUserIDs []string) ([]Pet, error) {
	seen := map[string]struct{}{}
	out := make([]Pet, 0)
	for _, ownerID := range ownerUserIDs {
		if _, ok := seen[ownerID]; ok {
			continue
		}
		seen[ownerID] = struct{}{}

		items, err := s.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
