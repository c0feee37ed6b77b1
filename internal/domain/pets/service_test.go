package pets

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-records/internal/domain/permissions"
)

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestService_Create_Validates(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Toby", Species: "Dog"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.Species != SpeciesDog || p.Sex != SexUnknown {
		t.Fatalf("unexpected pet: %#v", p)
	}

	bad := []CreateInput{
		{Name: "", Species: "dog"},
		{Name: "X", Species: "dragon"},
		{Name: "X", Species: "cat", Sex: "other"},
	}
	for _, in := range bad {
		if _, err := svc.Create(ctx, "owner-1", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%#v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestService_UpdateProfile_PatchSemantics(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	t0 := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	bd := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Toby", Species: "dog", Breed: "beagle", BirthDate: &bd})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	svc.now = func() time.Time { return t0.Add(time.Hour) }
	updated, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{
		Name:      strPtr("Toby II"),
		BirthDate: PatchBirthDate{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.Name != "Toby II" || updated.Breed != "beagle" {
		t.Fatalf("unexpected patch result: %#v", updated)
	}
	if updated.BirthDate != nil {
		t.Fatalf("birth_date null must clear the field")
	}
	if !updated.UpdatedAt.Equal(t0.Add(time.Hour)) || !updated.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected timestamps: %#v", updated)
	}

	if _, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{Name: strPtr("  ")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_OwnerOf_NotFoundMatchesPermissions(t *testing.T) {
	svc := NewService(newTestRepo())
	_, err := svc.OwnerOf(context.Background(), "missing")
	if !errors.Is(err, permissions.ErrPetNotFound) {
		t.Fatalf("expected permissions.ErrPetNotFound, got %v", err)
	}
}

func TestService_ListByOwners_Dedups(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	_, _ = svc.Create(ctx, "owner-1", CreateInput{Name: "A", Species: "dog"})
	_, _ = svc.Create(ctx, "owner-2", CreateInput{Name: "B", Species: "cat"})

	items, err := svc.ListByOwners(ctx, []string{"owner-1", "owner-2", "owner-1"})
	if err != nil {
		t.Fatalf("ListByOwners error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 pets, got %d", len(items))
	}
}
