package settings

import (
	"encoding/json"
	"net/http"
	"strings"

	"pet-adoption-match/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta la superficie admin de scoring.
// Todas las rutas exigen rol admin; la proyección nunca incluye la credencial.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/admin/scoring-settings", func(ar chi.Router) {
		ar.Get("/", getSettingsHandler(svc))
		ar.Put("/", updateSettingsHandler(svc))
		ar.Post("/test", testCallHandler(svc))
	})
}

type updateSettingsRequest struct {
	// Punteros para PATCH-semantics sobre PUT: nil = no tocar.
	Model       *string  `json:"model"`
	BaseURL     *string  `json:"base_url"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	Enabled     *bool    `json:"enabled"`
	Credential  *string  `json:"credential"`
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	if !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return claims.UserID, true
}

func getSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		writeJSON(w, http.StatusOK, svc.Projection(r.Context()))
	}
}

func updateSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		var req updateSettingsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		proj, err := svc.Update(r.Context(), UpdateInput{
			Model:       req.Model,
			BaseURL:     req.BaseURL,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Enabled:     req.Enabled,
			Credential:  req.Credential,
		}, actor)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, proj)
	}
}

func testCallHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		res, err := svc.TestCall(r.Context(), actor)
		if err != nil {
			switch err {
			case ErrRateLimited:
				http.Error(w, err.Error(), http.StatusTooManyRequests)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
