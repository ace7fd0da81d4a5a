package memory

import (
	"context"
	"testing"
	"time"

	"pet-vet-link/internal/domain/pets"
)

func seedPet(t *testing.T, repo pets.Repository, id, ownerID string, createdAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), pets.Pet{
		ID:          id,
		OwnerUserID: ownerID,
		Name:        "Pet " + id,
		Species:     pets.SpeciesDog,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("seed pet %s: %v", id, err)
	}
}

func TestPetRepo_GetMany_SkipsUnknownAndDuplicates(t *testing.T) {
	repo := NewPetRepo()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedPet(t, repo, "pet-1", "owner-1", base)
	seedPet(t, repo, "pet-2", "owner-1", base.Add(time.Minute))

	got, err := repo.GetMany(context.Background(), []string{"pet-2", "gone", "pet-1", "pet-2"})
	if err != nil {
		t.Fatalf("GetMany error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 pets (unknowns and dups skipped), got %d", len(got))
	}
}

func TestPetRepo_ListByOwner_OrderedByCreation(t *testing.T) {
	repo := NewPetRepo()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedPet(t, repo, "pet-b", "owner-1", base.Add(time.Hour))
	seedPet(t, repo, "pet-a", "owner-1", base)
	seedPet(t, repo, "pet-c", "owner-2", base)

	got, err := repo.ListByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 pets for owner-1, got %d", len(got))
	}
	if got[0].ID != "pet-a" || got[1].ID != "pet-b" {
		t.Fatalf("expected creation order, got %s, %s", got[0].ID, got[1].ID)
	}
}
