package matching

import (
	"encoding/json"
	"net/http"

	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/recommendations", recommendHandler(svc))

	// Lookup puntual del score cacheado de un par adopter/pet, para que el
	// cliente lo copie como snapshot al presentar una solicitud.
	r.Post("/recommendations/{petID}/latest", latestScoreHandler(svc))
}

type profileRequest struct {
	LivingSpace      string `json:"living_space"`
	EnergyPreference string `json:"energy_preference"`
	Experience       string `json:"experience"`
	Kids             string `json:"kids"`
	CareTolerance    string `json:"care_tolerance"`
	OwnsCats         bool   `json:"owns_cats"`
	TimeAvailability string `json:"time_availability"`
	PreferredSpecies string `json:"preferred_species"`
	PreferredSize    string `json:"preferred_size"`
	Interests        string `json:"interests"`
}

func toProfile(req profileRequest) AdopterProfile {
	return AdopterProfile{
		LivingSpace:      LivingSpace(req.LivingSpace),
		EnergyPreference: pets.EnergyLevel(req.EnergyPreference),
		Experience:       ExperienceLevel(req.Experience),
		Kids:             KidsAtHome(req.Kids),
		CareTolerance:    req.CareTolerance,
		OwnsCats:         req.OwnsCats,
		TimeAvailability: TimeAvailability(req.TimeAvailability),
		PreferredSpecies: pets.Species(req.PreferredSpecies),
		PreferredSize:    pets.Size(req.PreferredSize),
		Interests:        req.Interests,
	}
}

type recommendationResponse struct {
	PetID       string   `json:"pet_id"`
	PetSummary  string   `json:"pet_summary"`
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Reasons     []string `json:"reasons"`
	Risks       []string `json:"risks,omitempty"`
	MissingInfo []string `json:"missing_info,omitempty"`
	Version     string   `json:"version"`
}

type recommendResponse struct {
	Recommendations []recommendationResponse `json:"recommendations"`
	Count           int                      `json:"count"`
}

func recommendHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// AdopterID puede venir vacío (anónimo / admin on-behalf-of):
		// en ese caso no se consulta ni escribe el cache.
		adopterID := ""
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			adopterID = claims.UserID
		}

		items, err := svc.Recommend(r.Context(), toProfile(req), adopterID)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, "adopter profile is required", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]recommendationResponse, 0, len(items))
		for _, it := range items {
			out = append(out, recommendationResponse{
				PetID:       it.PetID,
				PetSummary:  it.PetSummary,
				Score:       it.Score,
				Label:       string(it.Label),
				Reasons:     it.Reasons,
				Risks:       it.Risks,
				MissingInfo: it.MissingInfo,
				Version:     it.Version,
			})
		}

		writeJSON(w, http.StatusOK, recommendResponse{
			Recommendations: out,
			Count:           len(out),
		})
	}
}

type latestScoreResponse struct {
	PetID       string   `json:"pet_id"`
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Reasons     []string `json:"reasons"`
	Risks       []string `json:"risks,omitempty"`
	MissingInfo []string `json:"missing_info,omitempty"`
	Version     string   `json:"version"`
}

func latestScoreHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.UserID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := svc.LatestScore(r.Context(), claims.UserID, chi.URLParam(r, "petID"), toProfile(req))
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, "adopter profile is required", http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "no cached score for this pet", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, latestScoreResponse{
			PetID:       rec.PetID,
			Score:       rec.Score,
			Label:       string(rec.Label),
			Reasons:     rec.Reasons,
			Risks:       rec.Risks,
			MissingInfo: rec.MissingInfo,
			Version:     rec.Version,
		})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
