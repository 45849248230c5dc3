package requests

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-adoption-match/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/requests", func(rr chi.Router) {
		// Alta (adopter)
		rr.Post("/", createRequestHandler(svc))

		// Listado por mascota (shelter/admin)
		rr.Get("/", listByPetHandler(svc))

		rr.Get("/{requestID}", getRequestHandler(svc))
		rr.Post("/{requestID}/status", setStatusHandler(svc))
		rr.Post("/{requestID}/cancel", cancelHandler(svc))
		rr.Post("/{requestID}/escalate", escalateHandler(svc))
	})

	// Solicitudes del adopter autenticado
	r.Get("/me/requests", listMineHandler(svc))
}

type createRequestRequest struct {
	PetID     string `json:"pet_id"`
	PetName   string `json:"pet_name"`
	ShelterID string `json:"shelter_id"`

	AdopterName    string `json:"adopter_name"`
	AdopterContact string `json:"adopter_contact"`

	CompatScore   *int     `json:"compat_score"`
	CompatLabel   string   `json:"compat_label"`
	CompatReasons []string `json:"compat_reasons"`

	Message string `json:"message"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type requestResponse struct {
	ID        string `json:"id"`
	PetID     string `json:"pet_id"`
	PetName   string `json:"pet_name"`
	ShelterID string `json:"shelter_id"`

	AdopterID      string `json:"adopter_id"`
	AdopterName    string `json:"adopter_name"`
	AdopterContact string `json:"adopter_contact"`

	Status string `json:"status"`

	CompatScore   *int     `json:"compat_score,omitempty"`
	CompatLabel   string   `json:"compat_label,omitempty"`
	CompatReasons []string `json:"compat_reasons,omitempty"`

	Message string `json:"message"`

	Escalated   bool       `json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func createRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		created, err := svc.Create(r.Context(), CreateInput{
			PetID:          req.PetID,
			PetName:        req.PetName,
			ShelterID:      req.ShelterID,
			AdopterID:      claims.UserID,
			AdopterName:    req.AdopterName,
			AdopterContact: req.AdopterContact,
			CompatScore:    req.CompatScore,
			CompatLabel:    req.CompatLabel,
			CompatReasons:  req.CompatReasons,
			Message:        req.Message,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "pet not found", http.StatusNotFound)
			case ErrDuplicateRequest:
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(created))
	}
}

func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.CanManageRequests() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		petID := strings.TrimSpace(r.URL.Query().Get("petId"))
		if petID == "" {
			http.Error(w, "petId query param required", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req, err := svc.GetByID(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}

		// El adopter solo ve las suyas; shelter/admin ven todas.
		if !claims.CanManageRequests() && req.AdopterID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.SetStatus(
			r.Context(),
			chi.URLParam(r, "requestID"),
			Status(strings.TrimSpace(strings.ToLower(req.Status))),
			Actor{UserID: claims.UserID, Role: claims.Role},
		)
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(updated))
	}
}

func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		updated, err := svc.SetStatus(
			r.Context(),
			chi.URLParam(r, "requestID"),
			StatusCancelled,
			Actor{UserID: claims.UserID, Role: claims.Role},
		)
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(updated))
	}
}

func escalateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		updated, err := svc.Escalate(
			r.Context(),
			chi.URLParam(r, "requestID"),
			Actor{UserID: claims.UserID, Role: claims.Role},
		)
		if err != nil {
			writeRequestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(updated))
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByAdopter(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeRequestError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrNotFound:
		http.Error(w, "request not found", http.StatusNotFound)
	case ErrForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	case ErrBadState:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case ErrApprovedConflict:
		// conflicto del invariante: mensaje específico y accionable
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRequestResponse(r Request) requestResponse {
	return requestResponse{
		ID:             r.ID,
		PetID:          r.PetID,
		PetName:        r.PetName,
		ShelterID:      r.ShelterID,
		AdopterID:      r.AdopterID,
		AdopterName:    r.AdopterName,
		AdopterContact: r.AdopterContact,
		Status:         string(r.Status),
		CompatScore:    r.CompatScore,
		CompatLabel:    r.CompatLabel,
		CompatReasons:  r.CompatReasons,
		Message:        r.Message,
		Escalated:      r.Escalated,
		EscalatedAt:    r.EscalatedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
