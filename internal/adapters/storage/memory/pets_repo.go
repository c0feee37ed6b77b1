package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-health-records/internal/domain/pets"
)

type petRepo struct {
	mu      sync.RWMutex
	byID    map[string]pets.Pet
	byOwner map[string]map[string]struct{}
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID:    make(map[string]pets.Pet),
		byOwner: make(map[string]map[string]struct{}),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	r.byID[p.ID] = clonePet(p)

	ids, ok := r.byOwner[p.OwnerUserID]
	if !ok {
		ids = make(map[string]struct{})
		r.byOwner[p.OwnerUserID] = ids
	}
	ids[p.ID] = struct{}{}
	return nil
}

// Update no permite cambiar de dueño.
func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists {
		return pets.ErrNotFound
	}
	if cur.OwnerUserID != p.OwnerUserID {
		return errors.New("pet owner cannot change")
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byOwner[ownerUserID]))
	for id := range r.byOwner[ownerUserID] {
		out = append(out, clonePet(r.byID[id]))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// clonePet copia los punteros para que el llamador no mute el estado guardado.
func clonePet(p pets.Pet) pets.Pet {
	if p.BirthDate != nil {
		b := *p.BirthDate
		p.BirthDate = &b
	}
	if p.WeightKg != nil {
		w := *p.WeightKg
		p.WeightKg = &w
	}
	return p
}
