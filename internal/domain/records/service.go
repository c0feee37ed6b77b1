package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("forbidden")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
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
	Type       RecordType
	OccurredAt time.Time
	Title      string
	Notes      string
	Details    Details
}

// Create registra un registro clínico. La autorización (clinical:write) ya la resolvió quien llama.
func (s *Service) Create(ctx context.Context, petID string, actor Actor, in CreateInput) (Record, error) {
	if strings.TrimSpace(petID) == "" {
		return Record{}, ErrInvalidInput
	}
	if !in.Type.Valid() {
		return Record{}, ErrInvalidInput
	}
	if in.OccurredAt.IsZero() {
		return Record{}, ErrInvalidInput
	}
	if actor.Type == "" || strings.TrimSpace(actor.UserID) == "" {
		return Record{}, ErrInvalidInput
	}
	if actor.Type == ActorClinic && strings.TrimSpace(actor.ClinicID) == "" {
		return Record{}, ErrInvalidInput
	}

	now := s.now()
	if in.OccurredAt.After(now.Add(5 * time.Minute)) {
		return Record{}, fmt.Errorf("%w: occurred_at in the future", ErrInvalidInput)
	}

	if err := validateDetails(in.Type, in.Details); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.Details = keepMatching(in.Type, in.Details)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultTitle(in.Type, in.Details)
	}

	rec := Record{
		ID:         uuid.NewString(),
		PetID:      petID,
		Type:       in.Type,
		OccurredAt: in.OccurredAt,
		RecordedAt: now,
		Title:      title,
		Notes:      strings.TrimSpace(in.Notes),
		Actor:      actor,
		Details:    in.Details,
		Status:     StatusActive,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get devuelve el registro solo si pertenece a petID.
func (s *Service) Get(ctx context.Context, petID, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.PetID != petID {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Record, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}

	items, err := s.repo.ListByPet(ctx, petID, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	return items, nil
}

// Void marca el registro como voided (no se borra). Idempotente.
// Una clínica solo anula lo que cargó esa misma clínica.
func (s *Service) Void(ctx context.Context, petID, id string, actor Actor) (Record, error) {
	rec, err := s.Get(ctx, petID, id)
	if err != nil {
		return Record{}, err
	}

	if actor.Type == ActorClinic && rec.Actor.ClinicID != actor.ClinicID {
		return Record{}, ErrForbidden
	}

	if rec.Status == StatusVoided {
		return rec, nil
	}

	if err := s.repo.Void(ctx, rec.ID, actor.UserID, s.now()); err != nil {
		return Record{}, err
	}
	return s.repo.GetByID(ctx, rec.ID)
}

func validateDetails(t RecordType, d Details) error {
	switch t {
	case TypeAllergy:
		if d.Allergy == nil {
			return errors.New("allergy details required")
		}
		return d.Allergy.Validate()
	case TypeVaccination:
		if d.Vaccination == nil {
			return errors.New("vaccination details required")
		}
		return d.Vaccination.Validate()
	case TypePrescription:
		if d.Prescription == nil {
			return errors.New("prescription details required")
		}
		return d.Prescription.Validate()
	case TypeLabTest:
		if d.LabTest == nil {
			return errors.New("lab_test details required")
		}
		return d.LabTest.Validate()
	case TypeMedicalRecord:
		// el detalle de consulta es opcional
		if d.Visit == nil {
			return nil
		}
		return d.Visit.Validate()
	}
	return nil
}

// keepMatching descarta detalles que no corresponden al tipo.
func keepMatching(t RecordType, d Details) Details {
	switch t {
	case TypeAllergy:
		return Details{Allergy: d.Allergy}
	case TypeVaccination:
		return Details{Vaccination: d.Vaccination}
	case TypePrescription:
		return Details{Prescription: d.Prescription}
	case TypeLabTest:
		return Details{LabTest: d.LabTest}
	case TypeMedicalRecord:
		return Details{Visit: d.Visit}
	default:
		return Details{}
	}
}

func defaultTitle(t RecordType, d Details) string {
	switch {
	case t == TypeAllergy && d.Allergy != nil:
		return "Alergia: " + d.Allergy.Allergen
	case t == TypeVaccination && d.Vaccination != nil:
		return "Vacuna: " + d.Vaccination.Vaccine
	case t == TypePrescription && d.Prescription != nil:
		return "Receta: " + d.Prescription.Medication
	case t == TypeLabTest && d.LabTest != nil:
		return "Análisis: " + d.LabTest.TestName
	case t == TypeMedicalRecord:
		return "Consulta"
	default:
		return "Nota"
	}
}
