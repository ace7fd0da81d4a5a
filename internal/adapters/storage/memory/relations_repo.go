package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-vet-link/internal/domain/relations"
)

type relationRepo struct {
	mu   sync.RWMutex
	byID map[string]relations.Relation
}

func NewRelationRepo() relations.Repository {
	return &relationRepo{
		byID: make(map[string]relations.Relation),
	}
}

func (r *relationRepo) Create(ctx context.Context, rel relations.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rel.ID) == "" {
		return errors.New("relation id required")
	}
	if _, exists := r.byID[rel.ID]; exists {
		return errors.New("relation already exists")
	}
	r.byID[rel.ID] = rel
	return nil
}

func (r *relationRepo) Update(ctx context.Context, rel relations.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rel.ID) == "" {
		return errors.New("relation id required")
	}
	if _, exists := r.byID[rel.ID]; !exists {
		return relations.ErrNotFound
	}
	r.byID[rel.ID] = rel
	return nil
}

func (r *relationRepo) GetByID(ctx context.Context, id string) (relations.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rel, ok := r.byID[id]
	if !ok {
		return relations.Relation{}, relations.ErrNotFound
	}
	return rel, nil
}

func (r *relationRepo) ListByPet(ctx context.Context, petID string) ([]relations.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]relations.Relation, 0)
	for _, rel := range r.byID {
		if rel.PetID == petID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *relationRepo) ListActiveByUserEmail(ctx context.Context, userEmail string) ([]relations.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]relations.Relation, 0)
	for _, rel := range r.byID {
		if rel.IsActive && strings.EqualFold(rel.UserEmail, userEmail) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// Defensivo: si por data sucia existieran múltiples relaciones activas,
// devolvemos la más reciente por AddedDate.
func (r *relationRepo) GetActive(ctx context.Context, petID, userEmail string) (relations.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var winner relations.Relation
	has := false

	for _, rel := range r.byID {
		if rel.PetID != petID {
			continue
		}
		if !strings.EqualFold(rel.UserEmail, userEmail) {
			continue
		}
		if !rel.IsActive {
			continue
		}

		if !has || rel.AddedDate.After(winner.AddedDate) {
			winner = rel
			has = true
		}
	}

	if !has {
		return relations.Relation{}, relations.ErrNotFound
	}
	return winner, nil
}

func (r *relationRepo) ListByInvitation(ctx context.Context, invitationID string) ([]relations.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]relations.Relation, 0)
	for _, rel := range r.byID {
		if rel.InvitationID == invitationID {
			out = append(out, rel)
		}
	}
	return out, nil
}
