package records

import (
	"time"

	"pet-health-records/internal/domain/records/details"
)

// Actor identifica quién cargó el registro. Si fue una clínica (vía grant),
// ClinicID y DoctorID quedan registrados.
type Actor struct {
	Type     ActorType
	UserID   string
	ClinicID string
	DoctorID string
}

// Details lleva el detalle tipado según Record.Type (a lo sumo uno no nil).
type Details struct {
	Allergy      *details.Allergy      `json:"allergy,omitempty"`
	Vaccination  *details.Vaccination  `json:"vaccination,omitempty"`
	Prescription *details.Prescription `json:"prescription,omitempty"`
	LabTest      *details.LabTest      `json:"lab_test,omitempty"`
	Visit        *details.Visit        `json:"visit,omitempty"`
}

type Record struct {
	ID    string
	PetID string

	Type RecordType

	OccurredAt time.Time
	RecordedAt time.Time

	Title string
	Notes string

	Actor   Actor
	Details Details

	Status   Status
	VoidedAt *time.Time
	VoidedBy string
}
