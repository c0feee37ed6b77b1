package records

// RecordType es el tipo de registro clínico.
type RecordType string

const (
	TypeAllergy       RecordType = "allergy"
	TypeVaccination   RecordType = "vaccination"
	TypePrescription  RecordType = "prescription"
	TypeLabTest       RecordType = "lab_test"
	TypeMedicalRecord RecordType = "medical_record" // consulta / visita
	TypeNote          RecordType = "note"
)

func (t RecordType) Valid() bool {
	switch t {
	case TypeAllergy, TypeVaccination, TypePrescription, TypeLabTest, TypeMedicalRecord, TypeNote:
		return true
	default:
		return false
	}
}

type ActorType string

const (
	ActorOwner  ActorType = "owner"
	ActorFamily ActorType = "family"
	ActorClinic ActorType = "clinic"
)

type Status string

const (
	StatusActive Status = "active"
	StatusVoided Status = "voided"
)
