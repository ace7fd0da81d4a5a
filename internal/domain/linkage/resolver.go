package linkage

import (
	"pet-vet-link/internal/domain/invitations"
)

// Resolve responde si alguna invitación "aceito" cubre a petID.
// Chequeo de existencia puro: tolera listas vacías/nil y entradas
// malformadas (Pets nil cubre nada).
func Resolve(invs []invitations.Invitation, petID string) bool {
	if petID == "" {
		return false
	}
	for _, inv := range invs {
		if inv.Status != invitations.StatusAceito {
			continue
		}
		if inv.Covers(petID) {
			return true
		}
	}
	return false
}

// ResolveMany calcula el linkage para un lote de mascotas.
// Garantiza exactamente una entrada por id pedido (default false),
// sin omitir ni duplicar, sea cual sea el contenido de invs.
func ResolveMany(invs []invitations.Invitation, petIDs []string) map[string]bool {
	out := make(map[string]bool, len(petIDs))
	for _, id := range petIDs {
		if id == "" {
			continue
		}
		out[id] = false
	}

	for _, inv := range invs {
		if inv.Status != invitations.StatusAceito {
			continue
		}
		for _, p := range inv.Pets {
			if _, wanted := out[p.PetID]; wanted {
				out[p.PetID] = true
			}
		}
	}
	return out
}

// AcceptedVetFor devuelve la invitación aceita que cubre a petID
// ("¿cuál vet?"). Si hubiera varias (multi-vet), gana la de
// ResponseDate más reciente.
func AcceptedVetFor(invs []invitations.Invitation, petID string) (invitations.Invitation, bool) {
	var winner invitations.Invitation
	found := false

	for _, inv := range invs {
		if inv.Status != invitations.StatusAceito || !inv.Covers(petID) {
			continue
		}
		if !found {
			winner = inv
			found = true
			continue
		}
		if later(inv, winner) {
			winner = inv
		}
	}
	return winner, found
}

func later(a, b invitations.Invitation) bool {
	switch {
	case a.ResponseDate == nil:
		return false
	case b.ResponseDate == nil:
		return true
	default:
		return a.ResponseDate.After(*b.ResponseDate)
	}
}
