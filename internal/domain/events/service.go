package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("event not found")
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

type CreateInput struct {
	Type       EventType
	OccurredAt time.Time
	Title      string
	Notes      string
}

func (s *Service) Create(ctx context.Context, petID string, actor Actor, in CreateInput) (HealthEvent, error) {
	if strings.TrimSpace(petID) == "" {
		return HealthEvent{}, ErrInvalidInput
	}
	if !validType(in.Type) {
		return HealthEvent{}, ErrInvalidInput
	}
	if in.OccurredAt.IsZero() {
		return HealthEvent{}, ErrInvalidInput
	}
	if actor.Type == "" || strings.TrimSpace(actor.ID) == "" {
		return HealthEvent{}, ErrInvalidInput
	}

	e := HealthEvent{
		ID:         uuid.NewString(),
		PetID:      petID,
		Type:       in.Type,
		OccurredAt: in.OccurredAt,
		RecordedAt: s.now(),
		Title:      strings.TrimSpace(in.Title),
		Notes:      strings.TrimSpace(in.Notes),
		Actor:      actor,
		Status:     EventStatusActive,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return HealthEvent{}, err
	}
	return e, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthEvent, error) {
	return s.repo.ListByPet(ctx, petID, filter)
}

// Void marca el evento como voided (no se borra). El evento tiene que
// pertenecer a la mascota indicada: un id de otra mascota es 404, no se
// toca nada.
func (s *Service) Void(ctx context.Context, petID, id string) (HealthEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return HealthEvent{}, ErrInvalidInput
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil || e.PetID != petID {
		return HealthEvent{}, ErrNotFound
	}

	if err := s.repo.Void(ctx, id); err != nil {
		return HealthEvent{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func validType(t EventType) bool {
	switch t {
	case EventTypeVaccine, EventTypeMedication, EventTypeDiaryNote,
		EventTypeVetVisit, EventTypeWeightRecorded:
		return true
	default:
		return false
	}
}
