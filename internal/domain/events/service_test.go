package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRepoNotFound = errors.New("repo: not found")

type testEventRepo struct {
	byID map[string]HealthEvent
}

func newTestEventRepo() *testEventRepo {
	return &testEventRepo{byID: map[string]HealthEvent{}}
}

func (r *testEventRepo) Create(ctx context.Context, e HealthEvent) error {
	if e.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testEventRepo) GetByID(ctx context.Context, id string) (HealthEvent, error) {
	e, ok := r.byID[id]
	if !ok {
		return HealthEvent{}, errRepoNotFound
	}
	return e, nil
}

func (r *testEventRepo) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthEvent, error) {
	out := make([]HealthEvent, 0)
	for _, e := range r.byID {
		if e.PetID == petID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *testEventRepo) Void(ctx context.Context, id string) error {
	e, ok := r.byID[id]
	if !ok {
		return errRepoNotFound
	}
	e.Status = EventStatusVoided
	r.byID[id] = e
	return nil
}

func seedEvent(repo *testEventRepo, id, petID string) HealthEvent {
	e := HealthEvent{
		ID:         id,
		PetID:      petID,
		Type:       EventTypeVaccine,
		OccurredAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		RecordedAt: time.Date(2026, 2, 1, 10, 5, 0, 0, time.UTC),
		Title:      "Antirrábica",
		Actor:      Actor{Type: ActorTypeOwnerUser, ID: "owner-1"},
		Status:     EventStatusActive,
	}
	repo.byID[e.ID] = e
	return e
}

func TestService_Void_MarksVoided(t *testing.T) {
	repo := newTestEventRepo()
	svc := NewService(repo)
	seedEvent(repo, "ev-1", "pet-1")

	got, err := svc.Void(context.Background(), "pet-1", "ev-1")
	if err != nil {
		t.Fatalf("Void error: %v", err)
	}
	if got.Status != EventStatusVoided {
		t.Fatalf("expected voided, got %s", got.Status)
	}
}

func TestService_Void_CrossPet_NotFound_NoMutation(t *testing.T) {
	repo := newTestEventRepo()
	svc := NewService(repo)
	seedEvent(repo, "ev-victim", "pet-victim")

	// El evento existe pero pertenece a otra mascota: 404, sin tocar nada.
	_, err := svc.Void(context.Background(), "pet-attacker", "ev-victim")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-pet void, got %v", err)
	}

	stored := repo.byID["ev-victim"]
	if stored.Status != EventStatusActive {
		t.Fatalf("cross-pet void must not mutate, got %s", stored.Status)
	}
}

func TestService_Void_UnknownEvent_NotFound(t *testing.T) {
	repo := newTestEventRepo()
	svc := NewService(repo)

	if _, err := svc.Void(context.Background(), "pet-1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
