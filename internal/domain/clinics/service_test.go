package clinics

import (
	"context"
	"errors"
	"testing"
)

type testRepo struct {
	clinics map[string]Clinic
	doctors map[string]Doctor
}

func newTestRepo() *testRepo {
	return &testRepo{clinics: map[string]Clinic{}, doctors: map[string]Doctor{}}
}

func (r *testRepo) CreateClinic(ctx context.Context, c Clinic) error {
	r.clinics[c.ID] = c
	return nil
}

func (r *testRepo) GetClinic(ctx context.Context, id string) (Clinic, error) {
	c, ok := r.clinics[id]
	if !ok {
		return Clinic{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) ListClinicsByAdmin(ctx context.Context, adminUserID string) ([]Clinic, error) {
	out := make([]Clinic, 0)
	for _, c := range r.clinics {
		if c.AdminUserID == adminUserID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *testRepo) CreateDoctor(ctx context.Context, d Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *testRepo) GetDoctor(ctx context.Context, id string) (Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return Doctor{}, ErrNotFound
	}
	return d, nil
}

func (r *testRepo) ListDoctors(ctx context.Context, clinicID string) ([]Doctor, error) {
	out := make([]Doctor, 0)
	for _, d := range r.doctors {
		if d.ClinicID == clinicID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *testRepo) ListDoctorsByUser(ctx context.Context, userID string) ([]Doctor, error) {
	out := make([]Doctor, 0)
	for _, d := range r.doctors {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestService_AddDoctor_AdminOnly(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, "admin-1", CreateClinicInput{Name: "Vet Centro"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := svc.AddDoctor(ctx, c.ID, "someone", AddDoctorInput{UserID: "doc-user", Name: "Dra. Paz"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	d, err := svc.AddDoctor(ctx, c.ID, "admin-1", AddDoctorInput{UserID: "doc-user", Name: "Dra. Paz", License: "MP-123"})
	if err != nil {
		t.Fatalf("AddDoctor error: %v", err)
	}
	if d.ClinicID != c.ID {
		t.Fatalf("unexpected doctor: %#v", d)
	}

	if _, err := svc.AddDoctor(ctx, c.ID, "admin-1", AddDoctorInput{UserID: "doc-user", Name: "Dra. Paz"}); !errors.Is(err, ErrDoctorExists) {
		t.Fatalf("expected ErrDoctorExists, got %v", err)
	}
}

func TestService_AffiliationsAndDoctorBelongs(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	c1, _ := svc.Create(ctx, "admin-1", CreateClinicInput{Name: "Uno"})
	c2, _ := svc.Create(ctx, "admin-2", CreateClinicInput{Name: "Dos"})

	d, err := svc.AddDoctor(ctx, c2.ID, "admin-2", AddDoctorInput{UserID: "admin-1", Name: "Doble rol"})
	if err != nil {
		t.Fatalf("AddDoctor error: %v", err)
	}

	affs, err := svc.AffiliationsOf(ctx, "admin-1")
	if err != nil {
		t.Fatalf("AffiliationsOf error: %v", err)
	}
	if len(affs) != 2 {
		t.Fatalf("expected 2 affiliations, got %#v", affs)
	}

	if ok, _ := svc.IsAffiliated(ctx, "admin-1", c1.ID); !ok {
		t.Fatalf("expected admin affiliation")
	}
	if ok, _ := svc.IsAffiliated(ctx, "stranger", c1.ID); ok {
		t.Fatalf("stranger must not be affiliated")
	}

	if ok, _ := svc.DoctorBelongs(ctx, c2.ID, d.ID); !ok {
		t.Fatalf("doctor should belong to clinic 2")
	}
	if ok, _ := svc.DoctorBelongs(ctx, c1.ID, d.ID); ok {
		t.Fatalf("doctor must not belong to clinic 1")
	}
	if ok, err := svc.DoctorBelongs(ctx, c1.ID, "missing"); ok || err != nil {
		t.Fatalf("missing doctor: ok=%v err=%v", ok, err)
	}
}

func TestService_ListDoctors_RequiresAffiliation(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	c, _ := svc.Create(ctx, "admin-1", CreateClinicInput{Name: "Uno"})
	if _, err := svc.ListDoctors(ctx, c.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ListDoctors(ctx, "missing", "admin-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
