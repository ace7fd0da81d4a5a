package linkage

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	r.Get("/pets/{petID}/linkage", getPetLinkageHandler(svc, petOwners))
	r.Get("/linkage", batchLinkageHandler(svc, petOwners))
}

type vetSummary struct {
	InvitationID string `json:"invitation_id"`
	VetName      string `json:"vet_name"`
	VetEmail     string `json:"vet_email"`
}

type petLinkageResponse struct {
	PetID    string      `json:"pet_id"`
	HasVet   bool        `json:"has_vet"`
	Degraded bool        `json:"degraded,omitempty"`
	Vet      *vetSummary `json:"vet,omitempty"`
}

// getPetLinkageHandler godoc
// @Summary Estado de vínculo de una mascota
// @Description Devuelve si la mascota tiene un veterinario vinculado (alguna invitación aceita la cubre) y cuál.
// @Tags linkage
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petLinkageResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/linkage [get]
func getPetLinkageHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
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

		resp := petLinkageResponse{PetID: petID}

		inv, found, err := svc.VetFor(r.Context(), petID)
		if err != nil {
			// Lectura degradada: "sin vet" marcado como degraded, igual
			// que el snapshot batch, en vez de 500.
			resp.Degraded = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
		if found {
			resp.HasVet = true
			resp.Vet = &vetSummary{
				InvitationID: inv.ID,
				VetName:      inv.VetName,
				VetEmail:     inv.VetEmail,
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// batchLinkageHandler resuelve linkage para varios pets de una
// (dashboards multi-mascota). ?pet_ids=a,b,c
// Solo mascotas del caller: ids ajenos o inexistentes se omiten.
func batchLinkageHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("pet_ids"))
		if raw == "" {
			http.Error(w, "pet_ids required", http.StatusBadRequest)
			return
		}

		ids := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			id := strings.TrimSpace(p)
			if id == "" {
				continue
			}
			ownerID, err := petOwners.OwnerOf(r.Context(), id)
			if err != nil || ownerID != claims.UserID {
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			http.Error(w, "pet_ids required", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, svc.Snapshot(r.Context(), ids))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
