package linkage

import (
	"context"
	"errors"
	"testing"

	"pet-vet-link/internal/domain/invitations"

	"github.com/rs/zerolog"
)

type stubLister struct {
	invs []invitations.Invitation
	err  error
}

func (s *stubLister) ListAccepted(ctx context.Context) ([]invitations.Invitation, error) {
	return s.invs, s.err
}

func TestService_Snapshot_HappyPath(t *testing.T) {
	svc := NewService(&stubLister{
		invs: []invitations.Invitation{acceptedInv("i1", "pet-1")},
	}, zerolog.Nop())

	got := svc.Snapshot(context.Background(), []string{"pet-1", "pet-2"})

	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %#v", got)
	}
	if !got["pet-1"].HasVet || got["pet-1"].Degraded {
		t.Fatalf("expected pet-1 linked and not degraded, got %#v", got["pet-1"])
	}
	if got["pet-2"].HasVet {
		t.Fatalf("expected pet-2 unlinked")
	}
}

func TestService_Snapshot_StoreFailure_DegradesToFalse(t *testing.T) {
	svc := NewService(&stubLister{err: errors.New("store down")}, zerolog.Nop())

	got := svc.Snapshot(context.Background(), []string{"pet-1", "pet-2"})

	if len(got) != 2 {
		t.Fatalf("expected entries for all requested pets, got %#v", got)
	}
	for id, st := range got {
		if st.HasVet {
			t.Fatalf("degraded read must not claim a vet for %s", id)
		}
		if !st.Degraded {
			t.Fatalf("expected Degraded=true for %s", id)
		}
	}
}

func TestService_VetFor_PropagatesError(t *testing.T) {
	svc := NewService(&stubLister{err: errors.New("store down")}, zerolog.Nop())

	if _, _, err := svc.VetFor(context.Background(), "pet-1"); err == nil {
		t.Fatalf("expected error from VetFor on store failure")
	}
}
