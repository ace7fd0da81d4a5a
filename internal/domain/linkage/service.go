package linkage

import (
	"context"

	"pet-vet-link/internal/domain/invitations"

	"github.com/rs/zerolog"
)

// AcceptedLister es lo único que el snapshot necesita del módulo de
// invitaciones (interfaz chica para no arrastrar el Service completo
// en tests).
type AcceptedLister interface {
	ListAccepted(ctx context.Context) ([]invitations.Invitation, error)
}

// Status es el estado derivado por mascota.
// Degraded=true cuando el fetch de invitaciones falló y el valor es el
// default (sin vet) en vez de un dato confirmado.
type Status struct {
	HasVet   bool `json:"has_vet"`
	Degraded bool `json:"degraded,omitempty"`
}

// Service centraliza el cómputo de linkage que antes cada vista
// recalculaba por su cuenta.
type Service struct {
	accepted AcceptedLister
	log      zerolog.Logger
}

func NewService(accepted AcceptedLister, log zerolog.Logger) *Service {
	return &Service{accepted: accepted, log: log}
}

// Snapshot devuelve el estado de linkage para un lote de mascotas.
// Siempre hay una entrada por id pedido. Un fallo de lectura del store
// no se propaga: se loguea y todas las entradas salen HasVet=false,
// Degraded=true.
func (s *Service) Snapshot(ctx context.Context, petIDs []string) map[string]Status {
	invs, err := s.accepted.ListAccepted(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("linkage: list accepted invitations failed")

		out := make(map[string]Status, len(petIDs))
		for _, id := range petIDs {
			if id == "" {
				continue
			}
			out[id] = Status{HasVet: false, Degraded: true}
		}
		return out
	}

	resolved := ResolveMany(invs, petIDs)
	out := make(map[string]Status, len(resolved))
	for id, hasVet := range resolved {
		out[id] = Status{HasVet: hasVet}
	}
	return out
}

// VetFor resuelve "¿cuál vet?" para una mascota puntual.
func (s *Service) VetFor(ctx context.Context, petID string) (invitations.Invitation, bool, error) {
	invs, err := s.accepted.ListAccepted(ctx)
	if err != nil {
		return invitations.Invitation{}, false, err
	}
	inv, ok := AcceptedVetFor(invs, petID)
	return inv, ok, nil
}
