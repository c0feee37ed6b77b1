package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-health-records/internal/domain/families"
)

type familyRepo struct {
	mu       sync.RWMutex
	families map[string]families.Family
	members  map[string]families.Member
}

func NewFamilyRepo() families.Repository {
	return &familyRepo{
		families: make(map[string]families.Family),
		members:  make(map[string]families.Member),
	}
}

func (r *familyRepo) CreateFamily(ctx context.Context, f families.Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID == "" {
		return errors.New("family id required")
	}
	for _, existing := range r.families {
		if existing.OwnerUserID == f.OwnerUserID {
			return families.ErrAlreadyExists
		}
	}
	r.families[f.ID] = f
	return nil
}

func (r *familyRepo) GetFamily(ctx context.Context, id string) (families.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.families[id]
	if !ok {
		return families.Family{}, families.ErrNotFound
	}
	return f, nil
}

func (r *familyRepo) GetFamilyByOwner(ctx context.Context, ownerUserID string) (families.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.families {
		if f.OwnerUserID == ownerUserID {
			return f, nil
		}
	}
	return families.Family{}, families.ErrNotFound
}

func (r *familyRepo) CreateMember(ctx context.Context, m families.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == "" {
		return errors.New("member id required")
	}
	if _, ok := r.families[m.FamilyID]; !ok {
		return families.ErrNotFound
	}
	if _, exists := r.members[m.ID]; exists {
		return errors.New("member already exists")
	}
	r.members[m.ID] = m
	return nil
}

func (r *familyRepo) UpdateMember(ctx context.Context, m families.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[m.ID]; !exists {
		return families.ErrNotFound
	}
	r.members[m.ID] = m
	return nil
}

func (r *familyRepo) GetMember(ctx context.Context, id string) (families.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return families.Member{}, families.ErrNotFound
	}
	return m, nil
}

func (r *familyRepo) ListMembers(ctx context.Context, familyID string) ([]families.Member, error) {
	return r.filterMembers(func(m families.Member) bool { return m.FamilyID == familyID }), nil
}

func (r *familyRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]families.Member, error) {
	if userID == "" {
		return []families.Member{}, nil
	}
	return r.filterMembers(func(m families.Member) bool { return m.UserID == userID }), nil
}

func (r *familyRepo) filterMembers(keep func(families.Member) bool) []families.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]families.Member, 0)
	for _, m := range r.members {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
