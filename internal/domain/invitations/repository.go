package invitations

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, inv Invitation) error
	Update(ctx context.Context, inv Invitation) error
	GetByID(ctx context.Context, id string) (Invitation, error)
	GetByCode(ctx context.Context, code string) (Invitation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Invitation, error)
	ListByVetEmail(ctx context.Context, vetEmail string) ([]Invitation, error)
	ListByStatus(ctx context.Context, status Status) ([]Invitation, error)
	// ListPendingOlderThan devuelve pendientes con invitation_date < cutoff.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]Invitation, error)
}
