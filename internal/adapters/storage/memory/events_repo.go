package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-vet-link/internal/domain/events"
)

type eventRepo struct {
	mu   sync.RWMutex
	byID map[string]events.HealthEvent
}

func NewEventRepo() events.Repository {
	return &eventRepo{
		byID: make(map[string]events.HealthEvent),
	}
}

func (r *eventRepo) Create(ctx context.Context, e events.HealthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("event already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (events.HealthEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.HealthEvent{}, ErrNotFound
	}
	return e, nil
}

func (r *eventRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.HealthEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.HealthEvent, 0)
	for _, e := range r.byID {
		if e.PetID != petID {
			continue
		}
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
	}

	// Más reciente primero (timeline).
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *eventRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = events.EventStatusVoided
	r.byID[id] = e
	return nil
}

func matches(e events.HealthEvent, f events.ListFilter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	return true
}
