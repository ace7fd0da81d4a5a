package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-vet-link/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Create(ctx context.Context, e events.HealthEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_events (
			id, pet_id, type,
			occurred_at, recorded_at,
			title, notes,
			actor_type, actor_id, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		e.ID,
		e.PetID,
		string(e.Type),
		e.OccurredAt,
		e.RecordedAt,
		e.Title,
		e.Notes,
		string(e.Actor.Type),
		e.Actor.ID,
		string(e.Status),
	)
	return err
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.HealthEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.HealthEvent{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id, type,
			occurred_at, recorded_at,
			title, notes,
			actor_type, actor_id, status
		FROM health_events
		WHERE id = $1
	`, id)
	return scanEvent(row)
}

func (r *EventsRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.HealthEvent, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	query := `
		SELECT
			id, pet_id, type,
			occurred_at, recorded_at,
			title, notes,
			actor_type, actor_id, status
		FROM health_events
		WHERE pet_id = $1
	`
	args := []any{petID}

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			args = append(args, string(t))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND type IN (" + strings.Join(placeholders, ",") + ")"
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}

	query += " ORDER BY occurred_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.HealthEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventsRepo) Void(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_events
		SET status = 'voided'
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row rowScanner) (events.HealthEvent, error) {
	var e events.HealthEvent
	var eventType, actorType, status string

	if err := row.Scan(
		&e.ID,
		&e.PetID,
		&eventType,
		&e.OccurredAt,
		&e.RecordedAt,
		&e.Title,
		&e.Notes,
		&actorType,
		&e.Actor.ID,
		&status,
	); err != nil {
		if err == sql.ErrNoRows {
			return events.HealthEvent{}, ErrNotFound
		}
		return events.HealthEvent{}, err
	}

	e.Type = events.EventType(eventType)
	e.Actor.Type = events.ActorType(actorType)
	e.Status = events.EventStatus(status)

	return e, nil
}
