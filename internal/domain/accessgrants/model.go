package accessgrants

import "time"

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

const (
	MinDurationHours     = 1
	MaxDurationHours     = 168
	DefaultDurationHours = 24
)

// Grant (pet_clinic_access) permite a una clínica (o a un doctor puntual de la clínica)
// ver/cargar registros clínicos de una mascota hasta ExpiresAt.
type Grant struct {
	ID string

	PetID    string
	ClinicID string
	DoctorID string // opcional: si viene, solo ese doctor (o el admin de la clínica)

	OwnerUserID string // quien otorga

	GrantedAt time.Time
	ExpiresAt time.Time

	Status  Status // valor almacenado; puede quedar atrasado respecto de EffectiveStatus
	OTPID   string
	Purpose string

	UpdatedAt time.Time
	RevokedAt *time.Time
}

// EffectiveStatus es la fuente de verdad del estado: revoked es terminal y gana
// sobre el vencimiento; después de ExpiresAt el grant está expired aunque el
// campo almacenado siga en active.
func EffectiveStatus(g Grant, now time.Time) Status {
	if g.Status == StatusRevoked {
		return StatusRevoked
	}
	if !now.Before(g.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// IsActive es el atajo usado por el evaluador de permisos.
func IsActive(g Grant, now time.Time) bool {
	return EffectiveStatus(g, now) == StatusActive
}
