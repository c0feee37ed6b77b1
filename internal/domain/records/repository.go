package records

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Record, error)
	Void(ctx context.Context, id, voidedBy string, at time.Time) error
}

// ListFilter: todos los campos son opcionales; orden occurred_at desc.
type ListFilter struct {
	Types         []RecordType
	From          *time.Time
	To            *time.Time
	Query         string
	IncludeVoided bool
	Limit         int
}
