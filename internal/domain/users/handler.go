package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-vet-link/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", getMeHandler(svc))
	r.Patch("/me", updateMeHandler(svc))
}

type userResponse struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name"`
	UserType             UserType  `json:"user_type"`
	ProfileSetupComplete bool      `json:"profile_setup_complete"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type updateMeRequest struct {
	FullName *string `json:"full_name"`
	UserType *string `json:"user_type"` // tutor|veterinario
}

func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.EnsureByEmail(r.Context(), claims.Email, claims.Name)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateMeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// Asegura el perfil antes de tocarlo (primer login).
		if _, err := svc.EnsureByEmail(r.Context(), claims.Email, claims.Name); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.Email, UpdateProfileInput{
			FullName: req.FullName,
			UserType: req.UserType,
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

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:                   u.ID,
		Email:                u.Email,
		FullName:             u.FullName,
		UserType:             u.UserType,
		ProfileSetupComplete: u.ProfileSetupComplete,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
