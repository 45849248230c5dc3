package matching

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/domain/settings"
	"pet-adoption-match/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// PetSource es la vista del directorio de mascotas que consume el
// orquestador: solo fichas disponibles y no archivadas.
type PetSource interface {
	ListAdoptable(ctx context.Context) ([]pets.Pet, error)
}

// ScoreRepository es el cache persistente de scores, keyed por
// (adopterID, petID, fingerprint). Append-only: nunca update-in-place.
type ScoreRepository interface {
	// Get devuelve ErrNotFound en miss; un record expirado cuenta como miss.
	Get(ctx context.Context, adopterID, petID, fingerprint string) (ScoreRecord, error)
	Put(ctx context.Context, rec ScoreRecord) error
}

// Scorer es el cliente de scoring externo. Cualquier fallo (timeout,
// non-2xx, salida malformada) vuelve como error; el orquestador degrada
// al fallback, nunca aborta el batch.
type Scorer interface {
	Score(ctx context.Context, profile AdopterProfile, pet pets.Pet, cfg settings.ScoringConfig) (ScoreOutcome, error)
}

// ConfigSource resuelve la configuración vigente de scoring.
// nil = scoring no disponible (deshabilitado, sin credencial, etc).
type ConfigSource interface {
	ActiveConfig(ctx context.Context) *settings.ScoringConfig
}

type Service struct {
	pets    PetSource
	scores  ScoreRepository
	scorer  Scorer
	configs ConfigSource
	log     logger.Logger
	now     func() time.Time
}

func NewService(petSource PetSource, scores ScoreRepository, scorer Scorer, configs ConfigSource, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		pets:    petSource,
		scores:  scores,
		scorer:  scorer,
		configs: configs,
		log:     log.With(map[string]any{"component": "matching"}),
		now:     time.Now,
	}
}

// Recommend evalúa el perfil contra todas las fichas adoptables y devuelve
// el listado completo rankeado (score desc, empates en discovery order).
// Por mascota: hard filter → cache → settings → scoring, con fallback
// neutral cuando el scoring real no está disponible. Fallos individuales
// degradan solo esa entrada; el listado siempre sale completo.
func (s *Service) Recommend(ctx context.Context, profile AdopterProfile, adopterID string) ([]Recommendation, error) {
	if profile.IsZero() {
		return nil, ErrInvalidInput
	}
	adopterID = strings.TrimSpace(adopterID)

	candidates, err := s.pets.ListAdoptable(ctx)
	if err != nil {
		return nil, err
	}

	// El fingerprint se computa una sola vez por invocación, no por mascota.
	fingerprint := Fingerprint(profile)

	// La config se resuelve una vez; staleness frente a updates concurrentes
	// del admin es aceptable (read-mostly).
	cfg := s.configs.ActiveConfig(ctx)

	out := make([]Recommendation, 0, len(candidates))
	for _, pet := range candidates {
		out = append(out, s.scoreOne(ctx, profile, pet, adopterID, fingerprint, cfg))
	}

	// Stable: los empates conservan discovery order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out, nil
}

// scoreOne corre el pipeline de una mascota. Nunca devuelve error: todo
// fallo interno colapsa al fallback de esa entrada.
func (s *Service) scoreOne(ctx context.Context, profile AdopterProfile, pet pets.Pet, adopterID, fingerprint string, cfg *settings.ScoringConfig) Recommendation {
	// 1) Hard filter: descarta sin tocar cache ni scoring.
	if reject, reason := EvaluateHardFilters(profile, pet); reject {
		return Recommendation{
			PetID:      pet.ID,
			PetSummary: PetSummary(pet),
			Score:      0,
			Label:      LabelNotSuitable,
			Reasons:    []string{reason},
			Version:    SchemaVersion,
		}
	}

	// 2) Cache: solo con adopter identificado (contexto anónimo no tiene
	// key estable contra la cual invalidar; siempre es miss a propósito).
	if adopterID != "" {
		if rec, err := s.scores.Get(ctx, adopterID, pet.ID, fingerprint); err == nil {
			return Recommendation{
				PetID:       pet.ID,
				PetSummary:  PetSummary(pet),
				Score:       rec.Score,
				Label:       rec.Label,
				Reasons:     rec.Reasons,
				Risks:       rec.Risks,
				MissingInfo: rec.MissingInfo,
				Version:     rec.Version,
			}
		}
	}

	// 3) Sin config = scoring no disponible: fallback neutral, sin cachear.
	if cfg == nil {
		return s.fallback(pet, ReasonScoringNotConfigured)
	}

	// 4) Llamada real.
	outcome, err := s.scorer.Score(ctx, profile, pet, *cfg)
	if err != nil {
		s.log.Warn("scoring call failed", map[string]any{
			"pet_id": pet.ID,
			"error":  err.Error(),
		})
		return s.fallback(pet, ReasonScoringUnavailable)
	}

	// Persistimos solo scores reales de adopters identificados.
	if adopterID != "" {
		rec := ScoreRecord{
			ID:          uuid.NewString(),
			AdopterID:   adopterID,
			PetID:       pet.ID,
			Fingerprint: fingerprint,
			Score:       outcome.Score,
			Label:       outcome.Label,
			Reasons:     outcome.Reasons,
			Risks:       outcome.Risks,
			MissingInfo: outcome.MissingInfo,
			Version:     outcome.Version,
			CreatedAt:   s.now(),
		}
		if err := s.scores.Put(ctx, rec); err != nil {
			// best-effort: un fallo de cache no degrada el resultado
			s.log.Warn("score cache put failed", map[string]any{
				"pet_id": pet.ID,
				"error":  err.Error(),
			})
		}
	}

	return Recommendation{
		PetID:       pet.ID,
		PetSummary:  PetSummary(pet),
		Score:       outcome.Score,
		Label:       outcome.Label,
		Reasons:     outcome.Reasons,
		Risks:       outcome.Risks,
		MissingInfo: outcome.MissingInfo,
		Version:     outcome.Version,
	}
}

// fallback arma el resultado neutral 50/CONDITIONAL. No es un score real:
// jamás se escribe al cache.
func (s *Service) fallback(pet pets.Pet, reason string) Recommendation {
	return Recommendation{
		PetID:      pet.ID,
		PetSummary: PetSummary(pet),
		Score:      FallbackScore,
		Label:      LabelConditional,
		Reasons:    []string{reason},
		Version:    SchemaVersion,
	}
}

// LatestScore busca el score cacheado más reciente de un par, para copiarlo
// como snapshot al crear una solicitud de adopción.
func (s *Service) LatestScore(ctx context.Context, adopterID, petID string, profile AdopterProfile) (ScoreRecord, error) {
	adopterID = strings.TrimSpace(adopterID)
	petID = strings.TrimSpace(petID)
	if adopterID == "" || petID == "" {
		return ScoreRecord{}, ErrInvalidInput
	}
	rec, err := s.scores.Get(ctx, adopterID, petID, Fingerprint(profile))
	if err != nil {
		return ScoreRecord{}, ErrNotFound
	}
	return rec, nil
}
