package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-health-records/internal/domain/clinics"
)

type clinicRepo struct {
	mu      sync.RWMutex
	clinics map[string]clinics.Clinic
	doctors map[string]clinics.Doctor
}

func NewClinicRepo() clinics.Repository {
	return &clinicRepo{
		clinics: make(map[string]clinics.Clinic),
		doctors: make(map[string]clinics.Doctor),
	}
}

func (r *clinicRepo) CreateClinic(ctx context.Context, c clinics.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return errors.New("clinic id required")
	}
	if _, exists := r.clinics[c.ID]; exists {
		return errors.New("clinic already exists")
	}
	r.clinics[c.ID] = c
	return nil
}

func (r *clinicRepo) GetClinic(ctx context.Context, id string) (clinics.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clinics[id]
	if !ok {
		return clinics.Clinic{}, clinics.ErrNotFound
	}
	return c, nil
}

func (r *clinicRepo) ListClinicsByAdmin(ctx context.Context, adminUserID string) ([]clinics.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinics.Clinic, 0)
	for _, c := range r.clinics {
		if c.AdminUserID == adminUserID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *clinicRepo) CreateDoctor(ctx context.Context, d clinics.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == "" {
		return errors.New("doctor id required")
	}
	if _, ok := r.clinics[d.ClinicID]; !ok {
		return clinics.ErrNotFound
	}
	for _, existing := range r.doctors {
		if existing.ClinicID == d.ClinicID && existing.UserID == d.UserID {
			return clinics.ErrDoctorExists
		}
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *clinicRepo) GetDoctor(ctx context.Context, id string) (clinics.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return clinics.Doctor{}, clinics.ErrNotFound
	}
	return d, nil
}

func (r *clinicRepo) ListDoctors(ctx context.Context, clinicID string) ([]clinics.Doctor, error) {
	return r.filterDoctors(func(d clinics.Doctor) bool { return d.ClinicID == clinicID }), nil
}

func (r *clinicRepo) ListDoctorsByUser(ctx context.Context, userID string) ([]clinics.Doctor, error) {
	return r.filterDoctors(func(d clinics.Doctor) bool { return d.UserID == userID }), nil
}

func (r *clinicRepo) filterDoctors(keep func(clinics.Doctor) bool) []clinics.Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinics.Doctor, 0)
	for _, d := range r.doctors {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
