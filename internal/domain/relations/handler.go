package relations

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	// Owner: quién tiene acceso a su mascota
	r.Get("/pets/{petID}/relations", listRelationsByPetHandler(svc, petOwners))
}

type relationResponse struct {
	ID               string           `json:"id"`
	PetID            string           `json:"pet_id"`
	UserID           string           `json:"user_id,omitempty"`
	UserEmail        string           `json:"user_email"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Permissions      []Permission     `json:"permissions"`
	AddedBy          string           `json:"added_by,omitempty"`
	AddedDate        time.Time        `json:"added_date"`
	IsActive         bool             `json:"is_active"`
}

func listRelationsByPetHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		ownerID, err := petOwners.OwnerOf(r.Context(), petID)
		if err != nil || strings.TrimSpace(ownerID) == "" {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]relationResponse, 0, len(items))
		for _, rel := range items {
			out = append(out, toRelationResponse(rel))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toRelationResponse(r Relation) relationResponse {
	return relationResponse{
		ID:               r.ID,
		PetID:            r.PetID,
		UserID:           r.UserID,
		UserEmail:        r.UserEmail,
		RelationshipType: r.RelationshipType,
		Permissions:      r.Permissions,
		AddedBy:          r.AddedBy,
		AddedDate:        r.AddedDate,
		IsActive:         r.IsActive,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
