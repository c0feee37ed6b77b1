package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-health-records/internal/domain/accessgrants"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `
	id, pet_id, clinic_id, doctor_id, owner_user_id,
	otp_id, purpose, status,
	granted_at, expires_at, updated_at, revoked_at`

// CreateConsumingOTP consume el OTP (UPDATE condicional) e inserta el grant en la misma transacción.
// Si el UPDATE no afecta filas, otro canje ganó o el OTP venció.
func (r *AccessGrantsRepo) CreateConsumingOTP(ctx context.Context, g accessgrants.Grant, otpID string, now time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE otps
		SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE AND expires_at > $2
	`, otpID, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return accessgrants.ErrOTPUnavailable
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO clinic_access_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		g.ID,
		g.PetID,
		g.ClinicID,
		g.DoctorID,
		g.OwnerUserID,
		otpID,
		g.Purpose,
		string(g.Status),
		g.GrantedAt,
		g.ExpiresAt,
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AccessGrantsRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clinic_access_grants
		SET
			status = $2,
			updated_at = $3,
			revoked_at = $4
		WHERE id = $1
	`,
		g.ID,
		string(g.Status),
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accessgrants.ErrNotFound
	}
	return nil
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM clinic_access_grants WHERE id = $1`, id)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, err
}

func (r *AccessGrantsRepo) ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error) {
	return r.list(ctx, `WHERE pet_id = $1`, petID)
}

func (r *AccessGrantsRepo) ListByClinic(ctx context.Context, clinicID string) ([]accessgrants.Grant, error) {
	return r.list(ctx, `WHERE clinic_id = $1`, clinicID)
}

func (r *AccessGrantsRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clinic_access_grants
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AccessGrantsRepo) list(ctx context.Context, where string, arg string) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM clinic_access_grants
		`+where+`
		ORDER BY granted_at DESC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(s rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	var status string
	var revoked sql.NullTime
	if err := s.Scan(
		&g.ID,
		&g.PetID,
		&g.ClinicID,
		&g.DoctorID,
		&g.OwnerUserID,
		&g.OTPID,
		&g.Purpose,
		&status,
		&g.GrantedAt,
		&g.ExpiresAt,
		&g.UpdatedAt,
		&revoked,
	); err != nil {
		return accessgrants.Grant{}, err
	}
	g.Status = accessgrants.Status(status)
	g.RevokedAt = fromNullTime(revoked)
	return g, nil
}
