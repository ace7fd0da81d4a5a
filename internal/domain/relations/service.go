package relations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type EnsureInput struct {
	PetID     string
	UserID    string
	UserEmail string

	RelationshipType RelationshipType
	Permissions      []Permission

	InvitationID string
	AddedBy      string
}

// Ensure crea la relación solo si no existe una activa para (pet, email).
// Idempotente: re-aceptar una invitación (o dos accepts en carrera que
// llegan en serie al store) no duplica relaciones.
func (s *Service) Ensure(ctx context.Context, in EnsureInput) (Relation, bool, error) {
	petID := strings.TrimSpace(in.PetID)
	email := normalizeEmail(in.UserEmail)

	if petID == "" || email == "" {
		return Relation{}, false, ErrInvalidInput
	}
	if in.RelationshipType != TypeOwner && in.RelationshipType != TypeVet {
		return Relation{}, false, ErrInvalidInput
	}

	if existing, err := s.repo.GetActive(ctx, petID, email); err == nil && existing.ID != "" {
		return existing, false, nil
	}

	perms := in.Permissions
	if len(perms) == 0 {
		perms = []Permission{PermRead}
	}

	r := Relation{
		ID:               uuid.NewString(),
		PetID:            petID,
		UserID:           strings.TrimSpace(in.UserID),
		UserEmail:        email,
		RelationshipType: in.RelationshipType,
		Permissions:      perms,
		InvitationID:     strings.TrimSpace(in.InvitationID),
		AddedBy:          strings.TrimSpace(in.AddedBy),
		AddedDate:        s.now(),
		IsActive:         true,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Relation{}, false, err
	}
	return r, true, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Relation, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListActiveByUserEmail(ctx context.Context, userEmail string) ([]Relation, error) {
	email := normalizeEmail(userEmail)
	if email == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByUserEmail(ctx, email)
}

// HasActive responde si (petID, userEmail) tiene relación activa.
func (s *Service) HasActive(ctx context.Context, petID, userEmail string) (bool, error) {
	petID = strings.TrimSpace(petID)
	email := normalizeEmail(userEmail)
	if petID == "" || email == "" {
		return false, ErrInvalidInput
	}

	r, err := s.repo.GetActive(ctx, petID, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.IsActive, nil
}

// DeactivateByInvitation apaga todas las relaciones materializadas desde
// una invitación (cancelación de un "aceito"). Best-effort por ítem:
// devuelve el primer error pero intenta apagar todas.
func (s *Service) DeactivateByInvitation(ctx context.Context, invitationID string) error {
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return ErrInvalidInput
	}

	items, err := s.repo.ListByInvitation(ctx, invitationID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, r := range items {
		if !r.IsActive {
			continue
		}
		r.IsActive = false
		if err := s.repo.Update(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
