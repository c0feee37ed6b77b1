package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-records/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

const recordColumns = `
	id, pet_id,
	type, occurred_at, recorded_at,
	title, notes,
	actor_type, actor_id, clinic_id, doctor_id,
	details, status, voided_at, voided_by`

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	// details va como JSONB; la forma depende de type
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pet_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.OccurredAt,
		rec.RecordedAt,
		rec.Title,
		rec.Notes,
		string(rec.Actor.Type),
		rec.Actor.UserID,
		rec.Actor.ClinicID,
		rec.Actor.DoctorID,
		details,
		string(rec.Status),
		toNullTime(rec.VoidedAt),
		rec.VoidedBy,
	)
	return err
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.Record{}, records.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM pet_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Record{}, records.ErrNotFound
	}
	return rec, err
}

func (r *RecordsRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = records.DefaultListLimit
	}

	where := []string{"pet_id = $1"}
	args := []any{petID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeVoided {
		where = append(where, "status = "+next(string(records.StatusActive)))
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		where = append(where, "type = ANY("+next(types)+")")
	}
	if filter.From != nil {
		where = append(where, "occurred_at >= "+next(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "occurred_at <= "+next(*filter.To))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := next("%" + q + "%")
		where = append(where, "(title ILIKE "+p+" OR notes ILIKE "+p+")")
	}

	query := `SELECT ` + recordColumns + `
		FROM pet_records
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY occurred_at DESC
		LIMIT ` + next(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) Void(ctx context.Context, id, voidedBy string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pet_records
		SET status = $2, voided_at = $3, voided_by = $4
		WHERE id = $1 AND status <> $2
	`, id, string(records.StatusVoided), at, voidedBy)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// ya anulado (idempotente) o inexistente
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pet_records WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return records.ErrNotFound
	}
	return nil
}

func scanRecord(s rowScanner) (records.Record, error) {
	var rec records.Record
	var typ, actorType, status string
	var details []byte
	var voided sql.NullTime
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.OccurredAt,
		&rec.RecordedAt,
		&rec.Title,
		&rec.Notes,
		&actorType,
		&rec.Actor.UserID,
		&rec.Actor.ClinicID,
		&rec.Actor.DoctorID,
		&details,
		&status,
		&voided,
		&rec.VoidedBy,
	); err != nil {
		return records.Record{}, err
	}

	rec.Type = records.RecordType(typ)
	rec.Actor.Type = records.ActorType(actorType)
	rec.Status = records.Status(status)
	rec.VoidedAt = fromNullTime(voided)

	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			return records.Record{}, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	return rec, nil
}
