package relations

import "context"

type Repository interface {
	Create(ctx context.Context, r Relation) error
	Update(ctx context.Context, r Relation) error
	GetByID(ctx context.Context, id string) (Relation, error)
	ListByPet(ctx context.Context, petID string) ([]Relation, error)
	ListActiveByUserEmail(ctx context.Context, userEmail string) ([]Relation, error)
	// GetActive busca la relación activa para (petID, userEmail).
	GetActive(ctx context.Context, petID, userEmail string) (Relation, error)
	ListByInvitation(ctx context.Context, invitationID string) ([]Relation, error)
}
