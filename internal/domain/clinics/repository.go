package clinics

import "context"

type Repository interface {
	CreateClinic(ctx context.Context, c Clinic) error
	GetClinic(ctx context.Context, id string) (Clinic, error)
	ListClinicsByAdmin(ctx context.Context, adminUserID string) ([]Clinic, error)

	CreateDoctor(ctx context.Context, d Doctor) error
	GetDoctor(ctx context.Context, id string) (Doctor, error)
	ListDoctors(ctx context.Context, clinicID string) ([]Doctor, error)
	ListDoctorsByUser(ctx context.Context, userID string) ([]Doctor, error)
}
