package invitations

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	r.Route("/invitations", func(ir chi.Router) {
		ir.Post("/", createInvitationHandler(svc, petOwners))
		ir.Get("/", listMyInvitationsAsOwnerHandler(svc))

		// Lookup por invite_code (página de aceptación out-of-band)
		ir.Get("/code/{code}", getByCodeHandler(svc))

		ir.Route("/{invitationID}", func(sr chi.Router) {
			sr.Post("/accept", acceptInvitationHandler(svc))
			sr.Post("/reject", rejectInvitationHandler(svc))
			sr.Post("/cancel", cancelInvitationHandler(svc))
		})
	})

	// Vet: sus invitaciones (match por email)
	r.Get("/me/invitations", listMyInvitationsAsVetHandler(svc))
}

type petRefPayload struct {
	PetID   string `json:"pet_id"`
	PetName string `json:"pet_name"`
}

type createInvitationRequest struct {
	VetName  string          `json:"vet_name"`
	VetEmail string          `json:"vet_email"`
	Pets     []petRefPayload `json:"pets"`
	Message  string          `json:"message"`
}

type invitationResponse struct {
	ID             string     `json:"id"`
	Status         Status     `json:"status"`
	VetName        string     `json:"vet_name"`
	VetEmail       string     `json:"vet_email"`
	PetOwnerID     string     `json:"pet_owner_id"`
	PetOwnerName   string     `json:"pet_owner_name"`
	PetOwnerEmail  string     `json:"pet_owner_email"`
	Pets           []PetRef   `json:"pets"`
	Message        string     `json:"message,omitempty"`
	InviteCode     string     `json:"invite_code,omitempty"`
	InvitationDate time.Time  `json:"invitation_date"`
	ResponseDate   *time.Time `json:"response_date,omitempty"`
}

// createInvitationHandler godoc
// @Summary Invitar a un veterinario
// @Description El tutor invita a un veterinario (por email) a una o más de sus mascotas. Si ya existe una invitación pendente para el mismo vet, se actualiza en lugar de duplicarse.
// @Tags invitations
// @Accept json
// @Produce json
// @Param payload body createInvitationRequest true "Datos de la invitación"
// @Success 201 {object} invitationResponse
// @Failure 400 {string} string "invalid json / email inválido / sin mascotas"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "alguna mascota no es del tutor"
// @Router /invitations [post]
func createInvitationHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createInvitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(req.Pets) == 0 {
			http.Error(w, "at least one pet required", http.StatusBadRequest)
			return
		}

		pets := make([]PetRef, 0, len(req.Pets))
		for _, p := range req.Pets {
			petID := strings.TrimSpace(p.PetID)
			if petID == "" {
				http.Error(w, "pet_id required", http.StatusBadRequest)
				return
			}
			ownerID, err := petOwners.OwnerOf(r.Context(), petID)
			if err != nil {
				http.Error(w, "pet not found: "+petID, http.StatusNotFound)
				return
			}
			if ownerID != claims.UserID {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			pets = append(pets, PetRef{PetID: petID, PetName: p.PetName})
		}

		inv, err := svc.Create(r.Context(), CreateInput{
			Owner: OwnerInfo{
				ID:    claims.UserID,
				Name:  claims.Name,
				Email: claims.Email,
			},
			VetName:  req.VetName,
			VetEmail: req.VetEmail,
			Pets:     pets,
			Message:  req.Message,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toInvitationResponse(inv, true))
	}
}

func listMyInvitationsAsOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationList(filterByStatus(items, r.URL.Query().Get("status")), true))
	}
}

func listMyInvitationsAsVetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByVetEmail(r.Context(), claims.Email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// El invite_code no se expone al vet: le llega por email.
		writeJSON(w, http.StatusOK, toInvitationList(filterByStatus(items, r.URL.Query().Get("status")), false))
	}
}

func getByCodeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		inv, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationResponse(inv, false))
	}
}

// acceptInvitationHandler godoc
// @Summary Aceptar una invitación
// @Description El veterinario acepta la invitación. El email del token debe coincidir con el vet_email de la invitación. Materializa las relaciones pet-user y marca el perfil como veterinario. Idempotente ante retries.
// @Tags invitations
// @Produce json
// @Param invitationID path string true "ID de la invitación"
// @Success 200 {object} invitationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "el email no coincide con vet_email"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "estado inválido"
// @Router /invitations/{invitationID}/accept [post]
func acceptInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		res, err := svc.Accept(r.Context(), chi.URLParam(r, "invitationID"), Responder{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationResponse(res.Invitation, false))
	}
}

func rejectInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		inv, err := svc.Reject(r.Context(), chi.URLParam(r, "invitationID"), Responder{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationResponse(inv, false))
	}
}

func cancelInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		inv, err := svc.Cancel(r.Context(), chi.URLParam(r, "invitationID"), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvitationResponse(inv, true))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	case ErrNotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case ErrBadState:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toInvitationResponse(inv Invitation, includeCode bool) invitationResponse {
	out := invitationResponse{
		ID:             inv.ID,
		Status:         inv.Status,
		VetName:        inv.VetName,
		VetEmail:       inv.VetEmail,
		PetOwnerID:     inv.PetOwnerID,
		PetOwnerName:   inv.PetOwnerName,
		PetOwnerEmail:  inv.PetOwnerEmail,
		Pets:           inv.Pets,
		Message:        inv.Message,
		InvitationDate: inv.InvitationDate,
		ResponseDate:   inv.ResponseDate,
	}
	if includeCode {
		out.InviteCode = inv.InviteCode
	}
	return out
}

func toInvitationList(items []Invitation, includeCode bool) []invitationResponse {
	out := make([]invitationResponse, 0, len(items))
	for _, inv := range items {
		out = append(out, toInvitationResponse(inv, includeCode))
	}
	return out
}

// status=pendente,aceito (CSV opcional)
func filterByStatus(items []Invitation, raw string) []Invitation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return items
	}

	allowed := map[Status]struct{}{}
	for _, p := range strings.Split(raw, ",") {
		s := Status(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		allowed[s] = struct{}{}
	}
	if len(allowed) == 0 {
		return items
	}

	filtered := make([]Invitation, 0, len(items))
	for _, inv := range items {
		if _, ok := allowed[inv.Status]; ok {
			filtered = append(filtered, inv)
		}
	}
	return filtered
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
