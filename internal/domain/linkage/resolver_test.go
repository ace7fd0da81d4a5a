package linkage

import (
	"testing"
	"time"

	"pet-vet-link/internal/domain/invitations"
)

func acceptedInv(id string, petIDs ...string) invitations.Invitation {
	pets := make([]invitations.PetRef, 0, len(petIDs))
	for _, p := range petIDs {
		pets = append(pets, invitations.PetRef{PetID: p})
	}
	return invitations.Invitation{
		ID:     id,
		Status: invitations.StatusAceito,
		Pets:   pets,
	}
}

func TestResolve_TrueOnlyForAcceptedCoveringPet(t *testing.T) {
	pending := acceptedInv("i1", "pet-1")
	pending.Status = invitations.StatusPendente

	rejected := acceptedInv("i2", "pet-1")
	rejected.Status = invitations.StatusRecusado

	invs := []invitations.Invitation{
		pending,
		rejected,
		acceptedInv("i3", "pet-2"),
	}

	if Resolve(invs, "pet-1") {
		t.Fatalf("pendente/recusado must not link pet-1")
	}
	if !Resolve(invs, "pet-2") {
		t.Fatalf("expected aceito invitation to link pet-2")
	}
	if Resolve(invs, "pet-9") {
		t.Fatalf("uncovered pet must not link")
	}
}

func TestResolve_ToleratesEmptyAndMalformed(t *testing.T) {
	if Resolve(nil, "pet-1") {
		t.Fatalf("nil invitations must resolve false")
	}
	if Resolve([]invitations.Invitation{}, "pet-1") {
		t.Fatalf("empty invitations must resolve false")
	}
	if Resolve([]invitations.Invitation{acceptedInv("i1", "pet-1")}, "") {
		t.Fatalf("empty pet id must resolve false")
	}

	// Aceito sin pets cubre nada.
	noPets := invitations.Invitation{ID: "i2", Status: invitations.StatusAceito}
	if Resolve([]invitations.Invitation{noPets}, "pet-1") {
		t.Fatalf("aceito without pets must resolve false")
	}
}

func TestResolveMany_ExactlyOneEntryPerRequestedID(t *testing.T) {
	invs := []invitations.Invitation{
		acceptedInv("i1", "pet-1", "pet-3"),
	}

	got := ResolveMany(invs, []string{"pet-1", "pet-2", "pet-3", "pet-2", ""})

	if len(got) != 3 {
		t.Fatalf("expected 3 entries (dedup + sin vacíos), got %d: %#v", len(got), got)
	}
	if !got["pet-1"] || !got["pet-3"] {
		t.Fatalf("expected pet-1 and pet-3 linked, got %#v", got)
	}
	if got["pet-2"] {
		t.Fatalf("expected pet-2 unlinked")
	}
	if _, ok := got["pet-2"]; !ok {
		t.Fatalf("pet-2 must still have an entry")
	}
}

func TestResolveMany_IgnoresUnrequestedPets(t *testing.T) {
	invs := []invitations.Invitation{
		acceptedInv("i1", "pet-7"),
	}
	got := ResolveMany(invs, []string{"pet-1"})
	if len(got) != 1 {
		t.Fatalf("result must only contain requested ids, got %#v", got)
	}
	if got["pet-1"] {
		t.Fatalf("pet-1 must not link via pet-7 invitation")
	}
}

func TestAcceptedVetFor_LatestResponseWins(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	older := acceptedInv("i1", "pet-1")
	older.VetEmail = "dra.lima@clinic.com"
	older.ResponseDate = &t1

	newer := acceptedInv("i2", "pet-1")
	newer.VetEmail = "dr.souza@clinic.com"
	newer.ResponseDate = &t2

	inv, ok := AcceptedVetFor([]invitations.Invitation{older, newer}, "pet-1")
	if !ok {
		t.Fatalf("expected a vet for pet-1")
	}
	if inv.ID != "i2" {
		t.Fatalf("expected latest response to win, got %s", inv.ID)
	}

	if _, ok := AcceptedVetFor([]invitations.Invitation{older, newer}, "pet-2"); ok {
		t.Fatalf("expected no vet for pet-2")
	}
}
