package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-vet-link/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	byEmail map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byEmail: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return errors.New("user email required")
	}
	if _, exists := r.byEmail[email]; exists {
		return errors.New("user already exists")
	}
	r.byEmail[email] = u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return errors.New("user email required")
	}
	if _, exists := r.byEmail[email]; !exists {
		return users.ErrNotFound
	}
	r.byEmail[email] = u
	return nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}
