package clinics

import "time"

type Clinic struct {
	ID          string
	Name        string
	Address     string
	Phone       string
	AdminUserID string // cuenta administradora de la clínica

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID       string
	ClinicID string
	UserID   string // cuenta del doctor (login propio)
	Name     string
	License  string // matrícula

	CreatedAt time.Time
}

// Affiliation describe la relación de un usuario con una clínica:
// admin de la clínica o doctor (DoctorID) de ella.
type Affiliation struct {
	ClinicID string
	DoctorID string
	Admin    bool
}
