package pets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-adoption-match/internal/middleware"
	"pet-adoption-match/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		// Alta de ficha (shelter)
		pr.Post("/", createPetHandler(svc))

		// Listado público de adoptables
		pr.Get("/", listAdoptableHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Post("/{petID}/archive", archivePetHandler(svc))
	})

	// Fichas del refugio autenticado
	r.Get("/me/pets", listShelterPetsHandler(svc))
}

type createPetRequest struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Breed       string `json:"breed"`
	AgeMonths   int    `json:"age_months"`
	Size        string `json:"size"`
	EnergyLevel string `json:"energy_level"`
	LivingSpace string `json:"living_space_need"`
	Experience  string `json:"experience_need"`
	KidFriendly string `json:"kid_friendly"`
	SpecialCare string `json:"special_care"`
	CatFriendly bool   `json:"cat_friendly"`
	Description string `json:"description"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string `json:"name"`
	Breed       *string `json:"breed"`
	AgeMonths   *int    `json:"age_months"`
	Size        *string `json:"size"`
	EnergyLevel *string `json:"energy_level"`
	LivingSpace *string `json:"living_space_need"`
	Experience  *string `json:"experience_need"`
	KidFriendly *string `json:"kid_friendly"`
	SpecialCare *string `json:"special_care"`
	CatFriendly *bool   `json:"cat_friendly"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type petResponse struct {
	ID          string    `json:"id"`
	ShelterID   string    `json:"shelter_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed"`
	AgeMonths   int       `json:"age_months"`
	Size        string    `json:"size"`
	EnergyLevel string    `json:"energy_level"`
	LivingSpace string    `json:"living_space_need"`
	Experience  string    `json:"experience_need"`
	KidFriendly string    `json:"kid_friendly"`
	SpecialCare string    `json:"special_care"`
	CatFriendly bool      `json:"cat_friendly"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleShelter && claims.Role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:            req.Name,
			Species:         req.Species,
			Breed:           req.Breed,
			AgeMonths:       req.AgeMonths,
			Size:            req.Size,
			EnergyLevel:     req.EnergyLevel,
			LivingSpaceNeed: req.LivingSpace,
			ExperienceNeed:  req.Experience,
			KidFriendly:     req.KidFriendly,
			SpecialCare:     req.SpecialCare,
			CatFriendly:     req.CatFriendly,
			Description:     req.Description,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listAdoptableHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAdoptable(r.Context())
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

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		p, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updatePetRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// Admin bypass: shelterID vacío salta el check de ownership en el service.
		shelterID := claims.UserID
		if claims.Role == auth.RoleAdmin {
			shelterID = ""
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), shelterID, UpdateInput{
			Name:        req.Name,
			Breed:       req.Breed,
			AgeMonths:   req.AgeMonths,
			Size:        req.Size,
			EnergyLevel: req.EnergyLevel,
			LivingSpace: req.LivingSpace,
			Experience:  req.Experience,
			KidFriendly: req.KidFriendly,
			SpecialCare: req.SpecialCare,
			CatFriendly: req.CatFriendly,
			Description: req.Description,
			Available:   req.Available,
		})
		if err != nil {
			writePetError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func archivePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		shelterID := claims.UserID
		if claims.Role == auth.RoleAdmin {
			shelterID = ""
		}

		p, err := svc.Archive(r.Context(), chi.URLParam(r, "petID"), shelterID)
		if err != nil {
			writePetError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func listShelterPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByShelter(r.Context(), claims.UserID)
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

func writePetError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrNotFound:
		http.Error(w, "pet not found", http.StatusNotFound)
	case ErrForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		ShelterID:   p.ShelterID,
		Name:        p.Name,
		Species:     string(p.Species),
		Breed:       p.Breed,
		AgeMonths:   p.AgeMonths,
		Size:        string(p.Size),
		EnergyLevel: string(p.EnergyLevel),
		LivingSpace: string(p.LivingSpaceNeed),
		Experience:  string(p.ExperienceNeed),
		KidFriendly: string(p.KidFriendly),
		SpecialCare: string(p.SpecialCare),
		CatFriendly: p.CatFriendly,
		Description: p.Description,
		Available:   p.Available,
		Archived:    p.Archived,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
