package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-records/internal/domain/records/details"
)

type testRepo struct {
	byID map[string]Record
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Record{}}
}

func (r *testRepo) Create(ctx context.Context, rec Record) error {
	if _, ok := r.byID[rec.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}
		if !filter.IncludeVoided && rec.Status == StatusVoided {
			continue
		}
		if len(filter.Types) > 0 {
			match := false
			for _, t := range filter.Types {
				if rec.Type == t {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *testRepo) Void(ctx context.Context, id, voidedBy string, at time.Time) error {
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = StatusVoided
	rec.VoidedAt = &at
	rec.VoidedBy = voidedBy
	r.byID[id] = rec
	return nil
}

var (
	fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	owner    = Actor{Type: ActorOwner, UserID: "owner-1"}
	clinicA  = Actor{Type: ActorClinic, UserID: "vet-1", ClinicID: "clinic-a", DoctorID: "doc-1"}
	clinicB  = Actor{Type: ActorClinic, UserID: "vet-2", ClinicID: "clinic-b"}
)

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestCreate_VaccinationWithDefaultTitle(t *testing.T) {
	svc, _ := newTestService()

	rec, err := svc.Create(context.Background(), "pet-1", clinicA, CreateInput{
		Type:       TypeVaccination,
		OccurredAt: fixedNow.Add(-time.Hour),
		Details:    Details{Vaccination: &details.Vaccination{Vaccine: "Antirrábica"}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.Title != "Vacuna: Antirrábica" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Status != StatusActive || !rec.RecordedAt.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Actor.ClinicID != "clinic-a" || rec.Actor.DoctorID != "doc-1" {
		t.Fatalf("actor not recorded: %+v", rec.Actor)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	past := fixedNow.Add(-time.Hour)
	zeroKg := 0.0

	cases := []struct {
		name  string
		actor Actor
		in    CreateInput
	}{
		{"unknown type", owner, CreateInput{Type: "surgery", OccurredAt: past}},
		{"zero occurred_at", owner, CreateInput{Type: TypeNote}},
		{"future occurred_at", owner, CreateInput{Type: TypeNote, OccurredAt: fixedNow.Add(time.Hour)}},
		{"missing details", owner, CreateInput{Type: TypeAllergy, OccurredAt: past}},
		{"invalid details", owner, CreateInput{Type: TypeAllergy, OccurredAt: past, Details: Details{Allergy: &details.Allergy{Allergen: "polen", Severity: "extreme"}}}},
		{"visit with non-positive weight", owner, CreateInput{Type: TypeMedicalRecord, OccurredAt: past, Details: Details{Visit: &details.Visit{WeightKg: &zeroKg}}}},
		{"lab test without name", owner, CreateInput{Type: TypeLabTest, OccurredAt: past, Details: Details{LabTest: &details.LabTest{}}}},
		{"clinic without clinic id", Actor{Type: ActorClinic, UserID: "vet-1"}, CreateInput{Type: TypeNote, OccurredAt: past}},
		{"missing actor", Actor{}, CreateInput{Type: TypeNote, OccurredAt: past}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "pet-1", tc.actor, tc.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreate_LabTestAndVisit(t *testing.T) {
	svc, _ := newTestService()
	kg := 12.5

	lab, err := svc.Create(context.Background(), "pet-1", clinicA, CreateInput{
		Type:       TypeLabTest,
		OccurredAt: fixedNow.Add(-time.Hour),
		Details: Details{LabTest: &details.LabTest{
			TestName: "Hemograma",
			Results:  []details.LabResult{{Name: "Hematocrito", Value: 42, Unit: "%"}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if lab.Title != "Análisis: Hemograma" || len(lab.Details.LabTest.Results) != 1 {
		t.Fatalf("unexpected lab record: %+v", lab)
	}

	visit, err := svc.Create(context.Background(), "pet-1", clinicA, CreateInput{
		Type:       TypeMedicalRecord,
		OccurredAt: fixedNow.Add(-time.Hour),
		Details:    Details{Visit: &details.Visit{Reason: "control", WeightKg: &kg}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if visit.Details.Visit == nil || *visit.Details.Visit.WeightKg != kg {
		t.Fatalf("unexpected visit record: %+v", visit)
	}
}

func TestCreate_DropsDetailsOfOtherTypes(t *testing.T) {
	svc, _ := newTestService()

	rec, err := svc.Create(context.Background(), "pet-1", owner, CreateInput{
		Type:       TypeNote,
		OccurredAt: fixedNow,
		Title:      "Come menos",
		Details:    Details{Vaccination: &details.Vaccination{Vaccine: "x"}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.Details.Vaccination != nil {
		t.Fatalf("expected details to be dropped")
	}
}

func TestGet_OtherPetIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	rec, err := svc.Create(context.Background(), "pet-1", owner, CreateInput{Type: TypeNote, OccurredAt: fixedNow})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), "pet-2", rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "pet-1", rec.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestListByPet_NewestFirstAndFilters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mk := func(tp RecordType, at time.Time, d Details) Record {
		rec, err := svc.Create(ctx, "pet-1", owner, CreateInput{Type: tp, OccurredAt: at, Details: d})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return rec
	}

	oldest := mk(TypeNote, fixedNow.Add(-72*time.Hour), Details{})
	newest := mk(TypeAllergy, fixedNow.Add(-1*time.Hour), Details{Allergy: &details.Allergy{Allergen: "pollo"}})
	middle := mk(TypeNote, fixedNow.Add(-24*time.Hour), Details{})

	items, err := svc.ListByPet(ctx, "pet-1", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || items[0].ID != newest.ID || items[1].ID != middle.ID || items[2].ID != oldest.ID {
		t.Fatalf("unexpected order: %+v", items)
	}

	notes, err := svc.ListByPet(ctx, "pet-1", ListFilter{Types: []RecordType{TypeNote}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}

	from := fixedNow
	to := fixedNow.Add(-time.Hour)
	if _, err := svc.ListByPet(ctx, "pet-1", ListFilter{From: &from, To: &to}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}

func TestVoid_IdempotentAndHiddenByDefault(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, "pet-1", owner, CreateInput{Type: TypeNote, OccurredAt: fixedNow})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	voided, err := svc.Void(ctx, "pet-1", rec.ID, owner)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.Status != StatusVoided || voided.VoidedAt == nil || voided.VoidedBy != owner.UserID {
		t.Fatalf("unexpected voided record: %+v", voided)
	}

	again, err := svc.Void(ctx, "pet-1", rec.ID, owner)
	if err != nil {
		t.Fatalf("second void: %v", err)
	}
	if !again.VoidedAt.Equal(*voided.VoidedAt) {
		t.Fatalf("second void must not change voided_at")
	}

	items, _ := svc.ListByPet(ctx, "pet-1", ListFilter{})
	if len(items) != 0 {
		t.Fatalf("voided record must be hidden by default")
	}
	items, _ = svc.ListByPet(ctx, "pet-1", ListFilter{IncludeVoided: true})
	if len(items) != 1 {
		t.Fatalf("expected voided record with include_voided")
	}
}

func TestVoid_ClinicOnlyOwnRecords(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	byA, err := svc.Create(ctx, "pet-1", clinicA, CreateInput{Type: TypeNote, OccurredAt: fixedNow})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	byOwner, err := svc.Create(ctx, "pet-1", owner, CreateInput{Type: TypeNote, OccurredAt: fixedNow})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Void(ctx, "pet-1", byA.ID, clinicB); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Void(ctx, "pet-1", byOwner.ID, clinicA); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Void(ctx, "pet-1", byA.ID, clinicA); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// el dueño puede anular cualquier registro de su mascota
	if _, err := svc.Void(ctx, "pet-1", byOwner.ID, owner); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
