package pets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-vet-link/internal/domain/relations"
	"pet-vet-link/internal/middleware"
	"pet-vet-link/internal/ports/files"

	"github.com/go-chi/chi/v5"
)

const maxPhotoBytes = 8 << 20 // 8MB

func RegisterRoutes(r chi.Router, svc *Service, relsSvc *relations.Service, uploader files.Uploader) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil (owner o vet con relación activa)
		pr.Get("/{petID}", getPetHandler(svc, relsSvc))

		// Actualizar (owner o vet con permiso write)
		pr.Patch("/{petID}", updatePetHandler(svc, relsSvc))

		// Foto (solo owner)
		pr.Post("/{petID}/photo", uploadPhotoHandler(svc, uploader))
	})

	// Vet: mascotas vinculadas a mí (pacientes)
	r.Get("/me/patients", listMyPatientsHandler(svc, relsSvc))
}

type createPetRequest struct {
	Name      string   `json:"name"`
	Species   string   `json:"species"`
	Breed     string   `json:"breed"`
	Sex       string   `json:"sex"`
	BirthDate string   `json:"birth_date"` // YYYY-MM-DD opcional
	WeightKg  *float64 `json:"weight_kg"`
	Notes     string   `json:"notes"`
}

type petResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	OwnerEmail  string     `json:"owner_email,omitempty"`
	Name        string     `json:"name"`
	Species     Species    `json:"species"`
	Breed       string     `json:"breed"`
	Sex         Sex        `json:"sex"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string  `json:"name"`
	Breed     *string  `json:"breed"`
	Sex       *string  `json:"sex"`
	BirthDate *string  `json:"birth_date"` // YYYY-MM-DD
	WeightKg  *float64 `json:"weight_kg"`
	Notes     *string  `json:"notes"`
}

type patientResponse struct {
	Pet         petResponse            `json:"pet"`
	Permissions []relations.Permission `json:"permissions"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, claims.Email, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Notes:     req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
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

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		if p.OwnerUserID != claims.UserID {
			hasRel, err := relsSvc.HasActive(r.Context(), p.ID, claims.Email)
			if err != nil || !hasRel {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		// Owner siempre; vet necesita relación activa con write.
		if p.OwnerUserID != claims.UserID {
			if !vetCanWrite(r, relsSvc, p.ID, claims.Email) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if req.BirthDate != nil {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(*req.BirthDate))
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		updated, err := svc.Update(r.Context(), p.ID, UpdateInput{
			Name:      req.Name,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Notes:     req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func uploadPhotoHandler(svc *Service, uploader files.Uploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if uploader == nil {
			http.Error(w, "media storage not configured", http.StatusServiceUnavailable)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		url, err := uploader.Upload(r.Context(), header.Filename, file)
		if err != nil {
			http.Error(w, "upload failed", http.StatusBadGateway)
			return
		}

		updated, err := svc.SetPhoto(r.Context(), p.ID, url)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func listMyPatientsHandler(svc *Service, relsSvc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rels, err := relsSvc.ListActiveByUserEmail(r.Context(), claims.Email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		relByPet := make(map[string]relations.Relation, len(rels))
		ids := make([]string, 0, len(rels))
		for _, rel := range rels {
			if rel.RelationshipType != relations.TypeVet {
				continue
			}
			relByPet[rel.PetID] = rel
			ids = append(ids, rel.PetID)
		}

		// GetMany omite mascotas borradas: una relación colgada no tumba
		// la lista.
		patients, err := svc.GetMany(r.Context(), ids)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]patientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, patientResponse{
				Pet:         toPetResponse(p),
				Permissions: relByPet[p.ID].Permissions,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func vetCanWrite(r *http.Request, relsSvc *relations.Service, petID, email string) bool {
	rel, err := relsSvc.ListByPet(r.Context(), petID)
	if err != nil {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, x := range rel {
		if x.IsActive && x.UserEmail == email && relations.HasPermission(x, relations.PermWrite) {
			return true
		}
	}
	return false
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		OwnerEmail:  p.OwnerEmail,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		WeightKg:    p.WeightKg,
		PhotoURL:    p.PhotoURL,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
