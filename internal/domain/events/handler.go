package events

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-vet-link/internal/domain/pets"
	"pet-vet-link/internal/domain/relations"
	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, relsSvc *relations.Service) {
	r.Route("/pets/{petID}/events", func(er chi.Router) {
		er.Post("/", createEventHandler(svc, petsSvc, relsSvc))
		er.Get("/", listEventsHandler(svc, petsSvc, relsSvc))

		// Anular (void) evento (owner o vet con write)
		er.Post("/{eventID}/void", voidEventHandler(svc, petsSvc, relsSvc))
	})
}

// createEventRequest es el cuerpo de la solicitud para registrar un evento de salud.
type createEventRequest struct {
	Type       EventType `json:"type" enums:"VACCINE,MEDICATION,DIARY_NOTE,VET_VISIT,WEIGHT_RECORDED"`
	OccurredAt string    `json:"occurred_at"` // RFC3339
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
}

// eventResponse representa un evento de salud devuelto por la API.
type eventResponse struct {
	ID         string      `json:"id"`
	PetID      string      `json:"pet_id"`
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	RecordedAt time.Time   `json:"recorded_at"`
	Title      string      `json:"title"`
	Notes      string      `json:"notes"`
	ActorType  ActorType   `json:"actor_type"`
	ActorID    string      `json:"actor_id"`
	Status     EventStatus `json:"status"`
}

// createEventHandler godoc
// @Summary Registrar evento de salud
// @Description Registra un evento de salud (vacuna, medicación, diario, consulta). El dueño siempre puede; un vet necesita relación activa con permiso write.
// @Tags events
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createEventRequest true "Datos del evento; occurred_at en RFC3339"
// @Success 201 {object} eventResponse
// @Failure 400 {string} string "invalid json / occurred_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/events [post]
func createEventHandler(svc *Service, petsSvc *pets.Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := petsSvc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		actorType, allowed := actorFor(r, relsSvc, p, claims.UserID, claims.Email, relations.PermWrite)
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), petID, Actor{
			Type: actorType,
			ID:   claims.UserID,
		}, CreateInput{
			Type:       req.Type,
			OccurredAt: t,
			Title:      req.Title,
			Notes:      req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

// listEventsHandler godoc
// @Summary Listar eventos de salud
// @Description Lista el historial de salud de una mascota. Dueño o vet con relación activa (read). Filtros: types CSV, from/to RFC3339, limit.
// @Tags events
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param types query string false "CSV de tipos (ej: VACCINE,MEDICATION)"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Param limit query int false "Máximo de eventos (1-200). Default 50"
// @Success 200 {array} eventResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/events [get]
func listEventsHandler(svc *Service, petsSvc *pets.Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := petsSvc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		if _, allowed := actorFor(r, relsSvc, p, claims.UserID, claims.Email, relations.PermRead); !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func voidEventHandler(svc *Service, petsSvc *pets.Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := petsSvc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		if _, allowed := actorFor(r, relsSvc, p, claims.UserID, claims.Email, relations.PermWrite); !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		e, err := svc.Void(r.Context(), petID, chi.URLParam(r, "eventID"))
		if err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

// actorFor decide quién actúa: owner siempre; vet requiere relación
// activa con el permiso pedido.
func actorFor(r *http.Request, relsSvc *relations.Service, p pets.Pet, userID, email string, perm relations.Permission) (ActorType, bool) {
	if p.OwnerUserID == userID {
		return ActorTypeOwnerUser, true
	}

	rels, err := relsSvc.ListByPet(r.Context(), p.ID)
	if err != nil {
		return "", false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, rel := range rels {
		if rel.IsActive && rel.UserEmail == email && relations.HasPermission(rel, perm) {
			return ActorTypeVetUser, true
		}
	}
	return "", false
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{Limit: 50}

	if raw := strings.TrimSpace(r.URL.Query().Get("types")); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			t := EventType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			filter.Types = append(filter.Types, t)
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ListFilter{}, errInvalidFilter("from must be RFC3339")
		}
		filter.From = &t
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ListFilter{}, errInvalidFilter("to must be RFC3339")
		}
		filter.To = &t
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			return ListFilter{}, errInvalidFilter("limit must be 1-200")
		}
		filter.Limit = n
	}

	return filter, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string { return string(e) }

func toEventResponse(e HealthEvent) eventResponse {
	return eventResponse{
		ID:         e.ID,
		PetID:      e.PetID,
		Type:       e.Type,
		OccurredAt: e.OccurredAt,
		RecordedAt: e.RecordedAt,
		Title:      e.Title,
		Notes:      e.Notes,
		ActorType:  e.Actor.Type,
		ActorID:    e.Actor.ID,
		Status:     e.Status,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
