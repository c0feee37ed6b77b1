package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pet-health-records/internal/domain/otp"
)

type OTPRepo struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepo {
	return &OTPRepo{db: db}
}

type otpRow struct {
	ID        string    `db:"id"`
	Phone     string    `db:"phone"`
	CodeHash  string    `db:"code_hash"`
	Purpose   string    `db:"purpose"`
	Subject   string    `db:"subject"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *OTPRepo) Create(ctx context.Context, o otp.OTP) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO otps (id, phone, code_hash, purpose, subject, expires_at, is_used, created_at)
		VALUES (:id, :phone, :code_hash, :purpose, :subject, :expires_at, :is_used, :created_at)
	`, otpRow{
		ID:        o.ID,
		Phone:     o.Phone,
		CodeHash:  o.CodeHash,
		Purpose:   string(o.Purpose),
		Subject:   o.Subject,
		ExpiresAt: o.ExpiresAt,
		IsUsed:    o.IsUsed,
		CreatedAt: o.CreatedAt,
	})
	return err
}

func (r *OTPRepo) LatestActive(ctx context.Context, phone string, purpose otp.Purpose, subject string, now time.Time) (otp.OTP, error) {
	var row otpRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, phone, code_hash, purpose, subject, expires_at, is_used, created_at
		FROM otps
		WHERE phone = $1 AND purpose = $2 AND subject = $3 AND is_used = FALSE AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1
	`, phone, string(purpose), subject, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return otp.OTP{}, otp.ErrNotFound
		}
		return otp.OTP{}, err
	}
	return otp.OTP{
		ID:        row.ID,
		Phone:     row.Phone,
		CodeHash:  row.CodeHash,
		Purpose:   otp.Purpose(row.Purpose),
		Subject:   row.Subject,
		ExpiresAt: row.ExpiresAt,
		IsUsed:    row.IsUsed,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *OTPRepo) MarkUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE otps
		SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE AND expires_at > $2
	`, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired no borra OTPs referenciados por un grant.
func (r *OTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otps o
		WHERE o.expires_at < $1
		  AND NOT EXISTS (SELECT 1 FROM clinic_access_grants g WHERE g.otp_id = o.id)
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
