package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-health-records/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byPhone map[string]string
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:    make(map[string]users.User),
		byPhone: make(map[string]string),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	if u.Phone != "" {
		if _, taken := r.byPhone[u.Phone]; taken {
			return users.ErrPhoneTaken
		}
		r.byPhone[u.Phone] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[u.ID]
	if !exists {
		return users.ErrNotFound
	}
	if u.Phone != "" {
		if owner, taken := r.byPhone[u.Phone]; taken && owner != u.ID {
			return users.ErrPhoneTaken
		}
	}
	if cur.Phone != "" {
		delete(r.byPhone, cur.Phone)
	}
	if u.Phone != "" {
		r.byPhone[u.Phone] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phone]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return r.byID[id], nil
}
