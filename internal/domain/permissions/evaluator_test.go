package permissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/domain/clinics"
	"pet-health-records/internal/domain/families"
)

type petOwners map[string]string

func (p petOwners) OwnerOf(ctx context.Context, petID string) (string, error) {
	o, ok := p[petID]
	if !ok {
		return "", ErrPetNotFound
	}
	return o, nil
}

// key = owner|user
type familyTable map[string]families.AccessLevel

func (f familyTable) ActiveMembership(ctx context.Context, ownerUserID, userID string) (families.Member, error) {
	lvl, ok := f[ownerUserID+"|"+userID]
	if !ok {
		return families.Member{}, families.ErrNotFound
	}
	return families.Member{UserID: userID, AccessLevel: lvl, Status: families.MemberActive}, nil
}

type affiliationTable map[string][]clinics.Affiliation

func (a affiliationTable) AffiliationsOf(ctx context.Context, userID string) ([]clinics.Affiliation, error) {
	return a[userID], nil
}

type grantTable []accessgrants.Grant

func (g grantTable) ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error) {
	out := make([]accessgrants.Grant, 0)
	for _, x := range g {
		if x.PetID == petID {
			out = append(out, x)
		}
	}
	return out, nil
}

var t0 = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func newTestEvaluator(grants grantTable) *Evaluator {
	e := NewEvaluator(
		petOwners{"pet-1": "owner-1"},
		familyTable{
			"owner-1|full-1": families.AccessFull,
			"owner-1|ro-1":   families.AccessReadOnly,
		},
		affiliationTable{
			"admin-a":  {{ClinicID: "clinic-a", Admin: true}},
			"doc-a1":   {{ClinicID: "clinic-a", DoctorID: "doctor-a1"}},
			"doc-a2":   {{ClinicID: "clinic-a", DoctorID: "doctor-a2"}},
			"doc-b1":   {{ClinicID: "clinic-b", DoctorID: "doctor-b1"}},
			"ro-1":     nil,
			"stranger": nil,
		},
		grants,
	)
	e.now = func() time.Time { return t0 }
	return e
}

func activeGrant(id, clinicID, doctorID string) accessgrants.Grant {
	return accessgrants.Grant{
		ID:          id,
		PetID:       "pet-1",
		ClinicID:    clinicID,
		DoctorID:    doctorID,
		OwnerUserID: "owner-1",
		Status:      accessgrants.StatusActive,
		GrantedAt:   t0.Add(-time.Hour),
		ExpiresAt:   t0.Add(time.Hour),
	}
}

func TestEvaluator_Matrix(t *testing.T) {
	e := newTestEvaluator(grantTable{activeGrant("g-a", "clinic-a", "")})
	ctx := context.Background()

	cases := []struct {
		user    string
		res     Resource
		act     Action
		allowed bool
		actor   Actor
	}{
		{"owner-1", ResourceProfile, ActionWrite, true, ActorOwner},
		{"owner-1", ResourceClinical, ActionWrite, true, ActorOwner},

		{"full-1", ResourceProfile, ActionWrite, true, ActorFamilyFull},
		{"full-1", ResourceClinical, ActionWrite, true, ActorFamilyFull},

		{"ro-1", ResourceProfile, ActionRead, true, ActorFamilyReadOnly},
		{"ro-1", ResourceClinical, ActionRead, true, ActorFamilyReadOnly},
		{"ro-1", ResourceProfile, ActionWrite, false, ActorFamilyReadOnly},
		{"ro-1", ResourceClinical, ActionWrite, false, ActorFamilyReadOnly},

		{"doc-a1", ResourceClinical, ActionRead, true, ActorClinic},
		{"doc-a1", ResourceClinical, ActionWrite, true, ActorClinic},
		{"doc-a1", ResourceProfile, ActionRead, false, ActorNone},

		{"doc-b1", ResourceClinical, ActionRead, false, ActorNone},
		{"stranger", ResourceProfile, ActionRead, false, ActorNone},
	}

	for _, c := range cases {
		d, err := e.Check(ctx, c.user, "pet-1", c.res, c.act)
		if err != nil {
			t.Fatalf("%s %s:%s unexpected error: %v", c.user, c.res, c.act, err)
		}
		if d.Allowed != c.allowed || d.Actor != c.actor {
			t.Fatalf("%s %s:%s = %#v, want allowed=%v actor=%s", c.user, c.res, c.act, d, c.allowed, c.actor)
		}
	}
}

func TestEvaluator_ClinicDecisionCarriesGrant(t *testing.T) {
	e := newTestEvaluator(grantTable{activeGrant("g-a", "clinic-a", "")})

	d, err := e.Check(context.Background(), "doc-a1", "pet-1", ResourceClinical, ActionWrite)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if d.ClinicID != "clinic-a" || d.GrantID != "g-a" || d.DoctorID != "doctor-a1" {
		t.Fatalf("unexpected decision: %#v", d)
	}
}

func TestEvaluator_DoctorScopedGrant(t *testing.T) {
	e := newTestEvaluator(grantTable{activeGrant("g-a", "clinic-a", "doctor-a1")})
	ctx := context.Background()

	for user, want := range map[string]bool{"doc-a1": true, "admin-a": true, "doc-a2": false} {
		d, err := e.Check(ctx, user, "pet-1", ResourceClinical, ActionRead)
		if err != nil {
			t.Fatalf("%s: %v", user, err)
		}
		if d.Allowed != want {
			t.Fatalf("%s: allowed=%v want %v", user, d.Allowed, want)
		}
	}
}

func TestEvaluator_ExpiredAndRevokedGrantsDeny(t *testing.T) {
	expired := activeGrant("g-exp", "clinic-a", "")
	expired.ExpiresAt = t0 // vence exactamente ahora

	revoked := activeGrant("g-rev", "clinic-a", "")
	revoked.Status = accessgrants.StatusRevoked

	e := newTestEvaluator(grantTable{expired, revoked})

	d, err := e.Check(context.Background(), "doc-a1", "pet-1", ResourceClinical, ActionRead)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expired/revoked grants must not allow access: %#v", d)
	}
}

func TestEvaluator_Require(t *testing.T) {
	e := newTestEvaluator(nil)
	ctx := context.Background()

	if _, err := e.Require(ctx, "stranger", "pet-1", ResourceProfile, ActionRead); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := e.Require(ctx, "owner-1", "missing", ResourceProfile, ActionRead); !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
	if _, err := e.Require(ctx, "owner-1", "pet-1", ResourceClinical, ActionWrite); err != nil {
		t.Fatalf("owner must be allowed: %v", err)
	}
}

func TestCapabilitiesOf_ReturnsCopy(t *testing.T) {
	caps := CapabilitiesOf(ActorFamilyReadOnly)
	caps[0] = ClinicalWrite
	if Has(ActorFamilyReadOnly, ClinicalWrite) {
		t.Fatalf("mutating the returned slice must not change the table")
	}
}
