package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"pet-health-records/internal/domain/clinics"
)

type ClinicsRepo struct {
	db *sqlx.DB
}

func NewClinicsRepo(db *sqlx.DB) *ClinicsRepo {
	return &ClinicsRepo{db: db}
}

type clinicRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Address     string    `db:"address"`
	Phone       string    `db:"phone"`
	AdminUserID string    `db:"admin_user_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type doctorRow struct {
	ID        string    `db:"id"`
	ClinicID  string    `db:"clinic_id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	License   string    `db:"license"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *ClinicsRepo) CreateClinic(ctx context.Context, c clinics.Clinic) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO clinics (id, name, address, phone, admin_user_id, created_at, updated_at)
		VALUES (:id, :name, :address, :phone, :admin_user_id, :created_at, :updated_at)
	`, clinicRow(c))
	return err
}

func (r *ClinicsRepo) GetClinic(ctx context.Context, id string) (clinics.Clinic, error) {
	var row clinicRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM clinics WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clinics.Clinic{}, clinics.ErrNotFound
		}
		return clinics.Clinic{}, err
	}
	return clinics.Clinic(row), nil
}

func (r *ClinicsRepo) ListClinicsByAdmin(ctx context.Context, adminUserID string) ([]clinics.Clinic, error) {
	var rows []clinicRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM clinics WHERE admin_user_id = $1 ORDER BY created_at ASC`, adminUserID); err != nil {
		return nil, err
	}
	out := make([]clinics.Clinic, 0, len(rows))
	for _, row := range rows {
		out = append(out, clinics.Clinic(row))
	}
	return out, nil
}

func (r *ClinicsRepo) CreateDoctor(ctx context.Context, d clinics.Doctor) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO doctors (id, clinic_id, user_id, name, license, created_at)
		VALUES (:id, :clinic_id, :user_id, :name, :license, :created_at)
	`, doctorRow(d))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return clinics.ErrDoctorExists
	}
	return err
}

func (r *ClinicsRepo) GetDoctor(ctx context.Context, id string) (clinics.Doctor, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM doctors WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clinics.Doctor{}, clinics.ErrNotFound
		}
		return clinics.Doctor{}, err
	}
	return clinics.Doctor(row), nil
}

func (r *ClinicsRepo) ListDoctors(ctx context.Context, clinicID string) ([]clinics.Doctor, error) {
	return r.listDoctors(ctx, `SELECT * FROM doctors WHERE clinic_id = $1 ORDER BY created_at ASC`, clinicID)
}

func (r *ClinicsRepo) ListDoctorsByUser(ctx context.Context, userID string) ([]clinics.Doctor, error) {
	return r.listDoctors(ctx, `SELECT * FROM doctors WHERE user_id = $1 ORDER BY created_at ASC`, userID)
}

func (r *ClinicsRepo) listDoctors(ctx context.Context, query, arg string) ([]clinics.Doctor, error) {
	var rows []doctorRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, err
	}
	out := make([]clinics.Doctor, 0, len(rows))
	for _, row := range rows {
		out = append(out, clinics.Doctor(row))
	}
	return out, nil
}
