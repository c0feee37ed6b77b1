package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"pet-health-records/internal/domain/users"
)

type UsersRepo struct {
	db *sqlx.DB
}

func NewUsersRepo(db *sqlx.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

type userRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	Phone     sql.NullString `db:"phone"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (row userRow) toDomain() users.User {
	return users.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func fromUser(u users.User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     sql.NullString{String: u.Phone, Valid: u.Phone != ""},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :created_at, :updated_at)
	`, fromUser(u))
	return mapUniquePhone(err)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users
		SET name = :name, email = :email, phone = :phone, updated_at = :updated_at
		WHERE id = :id
	`, fromUser(u))
	if err != nil {
		return mapUniquePhone(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE phone = $1`, phone)
}

func (r *UsersRepo) getOne(ctx context.Context, query, arg string) (users.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return row.toDomain(), nil
}

// 23505 = unique_violation (users_phone_uq)
func mapUniquePhone(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return users.ErrPhoneTaken
	}
	return err
}
