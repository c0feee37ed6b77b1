package clinics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("clinic not found")
	ErrDoctorExists = errors.New("user is already a doctor of this clinic")
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

type CreateClinicInput struct {
	Name    string
	Address string
	Phone   string
}

func (s *Service) Create(ctx context.Context, adminUserID string, in CreateClinicInput) (Clinic, error) {
	adminUserID = strings.TrimSpace(adminUserID)
	name := strings.TrimSpace(in.Name)
	if adminUserID == "" || name == "" {
		return Clinic{}, ErrInvalidInput
	}

	now := s.now()
	c := Clinic{
		ID:          uuid.NewString(),
		Name:        name,
		Address:     strings.TrimSpace(in.Address),
		Phone:       strings.TrimSpace(in.Phone),
		AdminUserID: adminUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateClinic(ctx, c); err != nil {
		return Clinic{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Clinic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Clinic{}, ErrNotFound
	}
	return s.repo.GetClinic(ctx, id)
}

type AddDoctorInput struct {
	UserID  string
	Name    string
	License string
}

// AddDoctor: solo el admin de la clínica da de alta doctores.
func (s *Service) AddDoctor(ctx context.Context, clinicID, actorUserID string, in AddDoctorInput) (Doctor, error) {
	c, err := s.Get(ctx, clinicID)
	if err != nil {
		return Doctor{}, err
	}
	if c.AdminUserID != strings.TrimSpace(actorUserID) {
		return Doctor{}, ErrForbidden
	}

	userID := strings.TrimSpace(in.UserID)
	name := strings.TrimSpace(in.Name)
	if userID == "" || name == "" {
		return Doctor{}, ErrInvalidInput
	}

	existing, err := s.repo.ListDoctors(ctx, c.ID)
	if err != nil {
		return Doctor{}, err
	}
	for _, d := range existing {
		if d.UserID == userID {
			return Doctor{}, ErrDoctorExists
		}
	}

	d := Doctor{
		ID:        uuid.NewString(),
		ClinicID:  c.ID,
		UserID:    userID,
		Name:      name,
		License:   strings.TrimSpace(in.License),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return Doctor{}, err
	}
	return d, nil
}

// ListDoctors: visible para cualquier afiliado (admin o doctor) de la clínica.
func (s *Service) ListDoctors(ctx context.Context, clinicID, actorUserID string) ([]Doctor, error) {
	c, err := s.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsAffiliated(ctx, actorUserID, c.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.repo.ListDoctors(ctx, c.ID)
}

// AffiliationsOf devuelve todas las clínicas en las que el usuario es admin o doctor.
func (s *Service) AffiliationsOf(ctx context.Context, userID string) ([]Affiliation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	admin, err := s.repo.ListClinicsByAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDoctorsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Affiliation, 0, len(admin)+len(docs))
	for _, c := range admin {
		out = append(out, Affiliation{ClinicID: c.ID, Admin: true})
	}
	for _, d := range docs {
		out = append(out, Affiliation{ClinicID: d.ClinicID, DoctorID: d.ID})
	}
	return out, nil
}

func (s *Service) IsAffiliated(ctx context.Context, userID, clinicID string) (bool, error) {
	affs, err := s.AffiliationsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, a := range affs {
		if a.ClinicID == clinicID {
			return true, nil
		}
	}
	return false, nil
}

// DoctorBelongs responde si doctorID existe y pertenece a clinicID.
func (s *Service) DoctorBelongs(ctx context.Context, clinicID, doctorID string) (bool, error) {
	d, err := s.repo.GetDoctor(ctx, strings.TrimSpace(doctorID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return d.ClinicID == clinicID, nil
}
