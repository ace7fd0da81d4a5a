package events

import "time"

type Actor struct {
	Type ActorType
	ID   string
}

// HealthEvent es una entrada del historial de salud de la mascota:
// vacunas, medicaciones, diario, consultas.
type HealthEvent struct {
	ID    string
	PetID string

	Type EventType

	OccurredAt time.Time
	RecordedAt time.Time

	Title string
	Notes string

	Actor  Actor
	Status EventStatus
}
