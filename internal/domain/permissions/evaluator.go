package permissions

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/domain/clinics"
	"pet-health-records/internal/domain/families"
	"pet-health-records/internal/platform/metrics"
)

var (
	ErrPetNotFound = accessgrants.ErrPetNotFound
	ErrForbidden   = errors.New("forbidden")
)

// PetOwnerLookup debe devolver un error que matchee ErrPetNotFound si la mascota no existe.
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type FamilyMembership interface {
	ActiveMembership(ctx context.Context, ownerUserID, userID string) (families.Member, error)
}

type ClinicAffiliations interface {
	AffiliationsOf(ctx context.Context, userID string) ([]clinics.Affiliation, error)
}

type GrantLookup interface {
	ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error)
}

// Evaluator resuelve qué puede hacer un usuario sobre una mascota.
// Orden: dueño, familia del dueño, clínica con grant activo.
type Evaluator struct {
	pets     PetOwnerLookup
	families FamilyMembership
	clinics  ClinicAffiliations
	grants   GrantLookup
	now      func() time.Time
}

func NewEvaluator(pets PetOwnerLookup, fam FamilyMembership, cl ClinicAffiliations, grants GrantLookup) *Evaluator {
	return &Evaluator{
		pets:     pets,
		families: fam,
		clinics:  cl,
		grants:   grants,
		now:      time.Now,
	}
}

// Check evalúa si userID tiene la capacidad (res, act) sobre petID.
// El error es ErrPetNotFound o un error de infraestructura; una denegación no es error.
func (e *Evaluator) Check(ctx context.Context, userID, petID string, res Resource, act Action) (Decision, error) {
	want := CapabilityFor(res, act)

	d, err := e.evaluate(ctx, strings.TrimSpace(userID), strings.TrimSpace(petID), want)
	if err != nil {
		return Decision{}, err
	}
	if !d.Allowed {
		metrics.PermissionDenied.WithLabelValues(string(res)).Inc()
	}
	return d, nil
}

// Require es Check pero devuelve ErrForbidden si se deniega.
func (e *Evaluator) Require(ctx context.Context, userID, petID string, res Resource, act Action) (Decision, error) {
	d, err := e.Check(ctx, userID, petID, res, act)
	if err != nil {
		return Decision{}, err
	}
	if !d.Allowed {
		return d, ErrForbidden
	}
	return d, nil
}

func (e *Evaluator) evaluate(ctx context.Context, userID, petID string, want Capability) (Decision, error) {
	ownerID, err := e.pets.OwnerOf(ctx, petID)
	if err != nil {
		return Decision{}, err
	}

	if userID == "" {
		return Decision{Actor: ActorNone}, nil
	}

	if ownerID == userID {
		return Decision{Allowed: Has(ActorOwner, want), Actor: ActorOwner}, nil
	}

	// primer actor que matchea (aunque no alcance) define el Actor de una denegación
	denied := Decision{Actor: ActorNone}

	m, err := e.families.ActiveMembership(ctx, ownerID, userID)
	switch {
	case err == nil:
		actor := ActorFamilyReadOnly
		if m.AccessLevel == families.AccessFull {
			actor = ActorFamilyFull
		}
		if Has(actor, want) {
			return Decision{Allowed: true, Actor: actor}, nil
		}
		denied.Actor = actor
	case !errors.Is(err, families.ErrNotFound):
		return Decision{}, err
	}

	if !Has(ActorClinic, want) {
		return denied, nil
	}

	affs, err := e.clinics.AffiliationsOf(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if len(affs) == 0 {
		return denied, nil
	}

	grants, err := e.grants.ListByPet(ctx, petID)
	if err != nil {
		return Decision{}, err
	}

	now := e.now()
	for _, g := range grants {
		if !accessgrants.IsActive(g, now) {
			continue
		}
		for _, a := range affs {
			if a.ClinicID != g.ClinicID {
				continue
			}
			// grant para un doctor puntual: solo ese doctor o el admin de la clínica
			if g.DoctorID != "" && !a.Admin && a.DoctorID != g.DoctorID {
				continue
			}
			return Decision{
				Allowed:  true,
				Actor:    ActorClinic,
				ClinicID: g.ClinicID,
				DoctorID: a.DoctorID,
				GrantID:  g.ID,
			}, nil
		}
	}

	return denied, nil
}
