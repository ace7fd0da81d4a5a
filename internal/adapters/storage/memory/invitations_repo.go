package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-vet-link/internal/domain/invitations"
)

type invitationRepo struct {
	mu   sync.RWMutex
	byID map[string]invitations.Invitation
}

func NewInvitationRepo() invitations.Repository {
	return &invitationRepo{
		byID: make(map[string]invitations.Invitation),
	}
}

func (r *invitationRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(inv.ID) == "" {
		return errors.New("invitation id required")
	}
	if _, exists := r.byID[inv.ID]; exists {
		return errors.New("invitation already exists")
	}
	r.byID[inv.ID] = inv
	return nil
}

func (r *invitationRepo) Update(ctx context.Context, inv invitations.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(inv.ID) == "" {
		return errors.New("invitation id required")
	}
	if _, exists := r.byID[inv.ID]; !exists {
		return invitations.ErrNotFound
	}
	r.byID[inv.ID] = inv
	return nil
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.byID[id]
	if !ok {
		return invitations.Invitation{}, invitations.ErrNotFound
	}
	return inv, nil
}

func (r *invitationRepo) GetByCode(ctx context.Context, code string) (invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.byID {
		if inv.InviteCode != "" && inv.InviteCode == code {
			return inv, nil
		}
	}
	return invitations.Invitation{}, invitations.ErrNotFound
}

func (r *invitationRepo) ListByOwner(ctx context.Context, ownerID string) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0)
	for _, inv := range r.byID {
		if inv.PetOwnerID == ownerID {
			out = append(out, inv)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *invitationRepo) ListByVetEmail(ctx context.Context, vetEmail string) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0)
	for _, inv := range r.byID {
		if strings.EqualFold(inv.VetEmail, vetEmail) {
			out = append(out, inv)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *invitationRepo) ListByStatus(ctx context.Context, status invitations.Status) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0)
	for _, inv := range r.byID {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	sortByDate(out)
	return out, nil
}

func (r *invitationRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0)
	for _, inv := range r.byID {
		if inv.Status == invitations.StatusPendente && inv.InvitationDate.Before(cutoff) {
			out = append(out, inv)
		}
	}
	sortByDate(out)
	return out, nil
}

func sortByDate(items []invitations.Invitation) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].InvitationDate.Before(items[j].InvitationDate)
	})
}
