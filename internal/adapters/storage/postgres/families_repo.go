package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"pet-health-records/internal/domain/families"
)

type FamiliesRepo struct {
	db *sqlx.DB
}

func NewFamiliesRepo(db *sqlx.DB) *FamiliesRepo {
	return &FamiliesRepo{db: db}
}

type familyRow struct {
	ID          string    `db:"id"`
	OwnerUserID string    `db:"owner_user_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type memberRow struct {
	ID          string       `db:"id"`
	FamilyID    string       `db:"family_id"`
	UserID      string       `db:"user_id"`
	Phone       string       `db:"phone"`
	AccessLevel string       `db:"access_level"`
	Status      string       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	JoinedAt    sql.NullTime `db:"joined_at"`
}

func (row memberRow) toDomain() families.Member {
	return families.Member{
		ID:          row.ID,
		FamilyID:    row.FamilyID,
		UserID:      row.UserID,
		Phone:       row.Phone,
		AccessLevel: families.AccessLevel(row.AccessLevel),
		Status:      families.MemberStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		JoinedAt:    fromNullTime(row.JoinedAt),
	}
}

func fromMember(m families.Member) memberRow {
	return memberRow{
		ID:          m.ID,
		FamilyID:    m.FamilyID,
		UserID:      m.UserID,
		Phone:       m.Phone,
		AccessLevel: string(m.AccessLevel),
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		JoinedAt:    toNullTime(m.JoinedAt),
	}
}

func (r *FamiliesRepo) CreateFamily(ctx context.Context, f families.Family) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO families (id, owner_user_id, name, created_at, updated_at)
		VALUES (:id, :owner_user_id, :name, :created_at, :updated_at)
	`, familyRow(f))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return families.ErrAlreadyExists
	}
	return err
}

func (r *FamiliesRepo) GetFamily(ctx context.Context, id string) (families.Family, error) {
	return r.getFamily(ctx, `SELECT * FROM families WHERE id = $1`, id)
}

func (r *FamiliesRepo) GetFamilyByOwner(ctx context.Context, ownerUserID string) (families.Family, error) {
	return r.getFamily(ctx, `SELECT * FROM families WHERE owner_user_id = $1`, ownerUserID)
}

func (r *FamiliesRepo) getFamily(ctx context.Context, query, arg string) (families.Family, error) {
	var row familyRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return families.Family{}, families.ErrNotFound
		}
		return families.Family{}, err
	}
	return families.Family(row), nil
}

func (r *FamiliesRepo) CreateMember(ctx context.Context, m families.Member) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO family_members (
			id, family_id, user_id, phone, access_level, status,
			created_at, updated_at, joined_at
		) VALUES (
			:id, :family_id, :user_id, :phone, :access_level, :status,
			:created_at, :updated_at, :joined_at
		)
	`, fromMember(m))
	return err
}

func (r *FamiliesRepo) UpdateMember(ctx context.Context, m families.Member) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE family_members
		SET user_id = :user_id,
			access_level = :access_level,
			status = :status,
			updated_at = :updated_at,
			joined_at = :joined_at
		WHERE id = :id
	`, fromMember(m))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return families.ErrNotFound
	}
	return nil
}

func (r *FamiliesRepo) GetMember(ctx context.Context, id string) (families.Member, error) {
	var row memberRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM family_members WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return families.Member{}, families.ErrNotFound
		}
		return families.Member{}, err
	}
	return row.toDomain(), nil
}

func (r *FamiliesRepo) ListMembers(ctx context.Context, familyID string) ([]families.Member, error) {
	return r.listMembers(ctx, `SELECT * FROM family_members WHERE family_id = $1 ORDER BY created_at ASC`, familyID)
}

func (r *FamiliesRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]families.Member, error) {
	if userID == "" {
		return []families.Member{}, nil
	}
	return r.listMembers(ctx, `SELECT * FROM family_members WHERE user_id = $1 ORDER BY created_at ASC`, userID)
}

func (r *FamiliesRepo) listMembers(ctx context.Context, query, arg string) ([]families.Member, error) {
	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, err
	}
	out := make([]families.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
