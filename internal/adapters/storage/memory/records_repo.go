package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-health-records/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.Record
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.Record),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.Record{}, records.ErrNotFound
	}
	return rec, nil
}

func (r *recordRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = records.DefaultListLimit
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]records.Record, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}
		if rec.Status == records.StatusVoided && !filter.IncludeVoided {
			continue
		}
		if len(filter.Types) > 0 && !hasType(filter.Types, rec.Type) {
			continue
		}

		// rango inclusivo sobre occurred_at
		if filter.From != nil && rec.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.OccurredAt.After(*filter.To) {
			continue
		}

		if q != "" && !strings.Contains(strings.ToLower(rec.Title+" "+rec.Notes), q) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *recordRepo) Void(ctx context.Context, id, voidedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.ErrNotFound
	}
	if rec.Status == records.StatusVoided {
		return nil
	}
	rec.Status = records.StatusVoided
	rec.VoidedAt = &at
	rec.VoidedBy = voidedBy
	r.byID[id] = rec
	return nil
}

func hasType(types []records.RecordType, t records.RecordType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
