package linkage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-vet-link/internal/domain/invitations"
	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type stubOwners map[string]string

func (s stubOwners) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := s[petID]
	if !ok {
		return "", errors.New("pet not found")
	}
	return owner, nil
}

func newHandlerServer(t *testing.T, svc *Service, owners PetOwnerLookup) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	RegisterRoutes(r, svc, owners)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func getLinkage(t *testing.T, ts *httptest.Server, path, userID string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Debug-User-ID", userID)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, body
}

func TestHandler_PetLinkage_StoreFailure_MarkedDegraded(t *testing.T) {
	svc := NewService(&stubLister{err: errors.New("store down")}, zerolog.Nop())
	ts := newHandlerServer(t, svc, stubOwners{"pet-1": "owner-1"})

	st, body := getLinkage(t, ts, "/pets/pet-1/linkage", "owner-1")
	if st != http.StatusOK {
		t.Fatalf("expected 200 on degraded read, got %d body=%s", st, string(body))
	}

	var resp struct {
		HasVet   bool `json:"has_vet"`
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, string(body))
	}
	if resp.HasVet {
		t.Fatalf("degraded read must not claim a vet")
	}
	if !resp.Degraded {
		t.Fatalf("expected degraded=true on store failure, body=%s", string(body))
	}
}

func TestHandler_PetLinkage_HealthyRead_NotDegraded(t *testing.T) {
	svc := NewService(&stubLister{
		invs: []invitations.Invitation{acceptedInv("i1", "pet-1")},
	}, zerolog.Nop())
	ts := newHandlerServer(t, svc, stubOwners{"pet-1": "owner-1"})

	st, body := getLinkage(t, ts, "/pets/pet-1/linkage", "owner-1")
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}

	var resp struct {
		HasVet   bool `json:"has_vet"`
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, string(body))
	}
	if !resp.HasVet || resp.Degraded {
		t.Fatalf("expected linked and not degraded, body=%s", string(body))
	}
}
