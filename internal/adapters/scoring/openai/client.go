package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-adoption-match/internal/domain/matching"
	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/domain/settings"
	"pet-adoption-match/internal/platform/httpclient"
	"pet-adoption-match/internal/platform/logger"
)

var (
	ErrScoringUpstream = errors.New("scoring upstream error")
	ErrBadOutput       = errors.New("scoring returned malformed output")
)

const (
	// DefaultBaseURL se usa cuando settings no trae endpoint alterno.
	DefaultBaseURL = "https://api.openai.com"

	completionsPath = "/v1/chat/completions"

	// Timeout por llamada: un scoring colgado degrada a fallback,
	// no bloquea el batch completo de recomendaciones.
	callTimeout = 30 * time.Second

	// Límites de texto libre que viajan al servicio externo.
	maxInterestsChars   = matching.MaxInterestsChars
	maxDescriptionChars = 300
)

// systemPrompt fija el contrato estructurado: score entero, label con
// thresholds fijos, arrays de razones/riesgos/info faltante, y sesgo a
// números redondos para repetibilidad.
const systemPrompt = `You are an adoption compatibility evaluator for an animal shelter marketplace.
Given an adopter profile and a pet profile, respond with ONLY a JSON object:
{"score": <integer 0-100>, "label": "SUITABLE"|"CONDITIONAL"|"NOT_SUITABLE", "reasons": [strings], "risks": [strings], "missing_info": [strings], "version": "v1"}
Label thresholds are fixed: score >= 70 is SUITABLE, 40-69 is CONDITIONAL, below 40 is NOT_SUITABLE.
Be deterministic: identical inputs must produce identical output. Prefer round numbers (multiples of 5).
Keep reasons short and user-facing. Do not include any text outside the JSON object.`

// Client es el scoring client sobre un endpoint compatible con la API de
// chat completions. Implementa matching.Scorer.
// Telemetría: solo latencia y resultado; jamás la credencial ni el payload.
type Client struct {
	http *httpclient.Client
	log  logger.Logger
}

func NewClient(log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		http: httpclient.New(callTimeout),
		log:  log.With(map[string]any{"component": "scoring"}),
	}
}

// NewClientWithTransport permite inyectar transport para tests.
func NewClientWithTransport(log logger.Logger, tr http.RoundTripper) *Client {
	c := NewClient(log)
	c.http = httpclient.NewWithTransport(callTimeout, tr)
	return c
}

// adopterPayload y petPayload son los payloads acotados que viajan al
// servicio externo: solo campos relevantes al matching, texto libre
// truncado. Nunca records completos.
type adopterPayload struct {
	LivingSpace      string `json:"living_space"`
	EnergyPreference string `json:"energy_preference,omitempty"`
	Experience       string `json:"experience"`
	Kids             string `json:"kids"`
	CareTolerance    string `json:"care_tolerance,omitempty"`
	OwnsCats         bool   `json:"owns_cats"`
	TimeAvailability string `json:"time_availability"`
	PreferredSpecies string `json:"preferred_species,omitempty"`
	PreferredSize    string `json:"preferred_size,omitempty"`
	Interests        string `json:"interests,omitempty"`
}

type petPayload struct {
	Species     string `json:"species"`
	Breed       string `json:"breed,omitempty"`
	AgeMonths   int    `json:"age_months"`
	Size        string `json:"size"`
	EnergyLevel string `json:"energy_level"`
	LivingSpace string `json:"living_space_need"`
	Experience  string `json:"experience_need"`
	KidFriendly string `json:"kid_friendly"`
	SpecialCare string `json:"special_care"`
	CatFriendly bool   `json:"cat_friendly"`
	Description string `json:"description,omitempty"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat respFormat    `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// scoredOutput es el JSON estructurado que pedimos al modelo.
type scoredOutput struct {
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Reasons     []string `json:"reasons"`
	Risks       []string `json:"risks"`
	MissingInfo []string `json:"missing_info"`
	Version     string   `json:"version"`
}

// Score hace exactamente un request externo por llamada y re-valida la
// salida del lado cliente (clamp a [0,100], label fuera del enum →
// CONDITIONAL). Todo fallo vuelve como error; el caller degrada a fallback.
func (c *Client) Score(ctx context.Context, profile matching.AdopterProfile, pet pets.Pet, cfg settings.ScoringConfig) (matching.ScoreOutcome, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return matching.ScoreOutcome{}, fmt.Errorf("%w: missing credential", ErrScoringUpstream)
	}

	payload := struct {
		Adopter adopterPayload `json:"adopter"`
		Pet     petPayload     `json:"pet"`
	}{
		Adopter: toAdopterPayload(profile),
		Pet:     toPetPayload(pet),
	}
	userContent, _ := json.Marshal(payload)

	req := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		ResponseFormat: respFormat{Type: "json_object"},
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	var resp chatResponse
	err := c.http.DoJSON(ctx, http.MethodPost, endpoint(cfg.BaseURL), map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
	}, req, &resp)
	latency := time.Since(start)

	if err != nil {
		c.log.Warn("scoring call failed", map[string]any{
			"outcome":    "failed",
			"latency_ms": latency.Milliseconds(),
		})
		return matching.ScoreOutcome{}, fmt.Errorf("%w: %v", ErrScoringUpstream, sanitizeErr(err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.log.Warn("scoring returned empty output", map[string]any{
			"outcome":    "malformed",
			"latency_ms": latency.Milliseconds(),
		})
		return matching.ScoreOutcome{}, ErrBadOutput
	}

	var out scoredOutput
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		c.log.Warn("scoring returned invalid json", map[string]any{
			"outcome":    "malformed",
			"latency_ms": latency.Milliseconds(),
		})
		return matching.ScoreOutcome{}, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}

	c.log.Info("scoring call ok", map[string]any{
		"outcome":    "ok",
		"latency_ms": latency.Milliseconds(),
	})

	// No confiamos en la auto-consistencia del modelo: clamp + coerción.
	score := matching.ClampScore(out.Score)
	version := strings.TrimSpace(out.Version)
	if version == "" {
		version = matching.SchemaVersion
	}

	return matching.ScoreOutcome{
		Score:       score,
		Label:       matching.NormalizeLabel(out.Label),
		Reasons:     out.Reasons,
		Risks:       out.Risks,
		MissingInfo: out.MissingInfo,
		Version:     version,
	}, nil
}

// Probe hace una llamada mínima de prueba con un par sintético.
// Lo usa el test-call del admin de settings.
func (c *Client) Probe(ctx context.Context, cfg settings.ScoringConfig) error {
	profile := matching.AdopterProfile{
		LivingSpace:      matching.LivingHouse,
		Experience:       matching.ExperienceSome,
		Kids:             matching.KidsNone,
		TimeAvailability: matching.TimeModerate,
	}
	pet := pets.Pet{
		ID:              "probe",
		Name:            "Probe",
		Species:         pets.SpeciesDog,
		AgeMonths:       24,
		Size:            pets.SizeMedium,
		EnergyLevel:     pets.EnergyModerate,
		LivingSpaceNeed: pets.NeedsApartmentOK,
		ExperienceNeed:  pets.ExperienceFirstTimeOK,
		KidFriendly:     pets.KidsAllAges,
		SpecialCare:     pets.CareNone,
	}
	_, err := c.Score(ctx, profile, pet, cfg)
	return err
}

func toAdopterPayload(p matching.AdopterProfile) adopterPayload {
	return adopterPayload{
		LivingSpace:      string(p.LivingSpace),
		EnergyPreference: string(p.EnergyPreference),
		Experience:       string(p.Experience),
		Kids:             string(p.Kids),
		CareTolerance:    p.CareTolerance,
		OwnsCats:         p.OwnsCats,
		TimeAvailability: string(p.TimeAvailability),
		PreferredSpecies: string(p.PreferredSpecies),
		PreferredSize:    string(p.PreferredSize),
		Interests:        truncate(p.Interests, maxInterestsChars),
	}
}

func toPetPayload(p pets.Pet) petPayload {
	return petPayload{
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
		Description: truncate(p.Description, maxDescriptionChars),
	}
}

func endpoint(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + completionsPath
}

// sanitizeErr reduce errores HTTP a status-only: el body upstream podría
// ecoar headers del request.
func sanitizeErr(err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("status=%d", httpErr.StatusCode)
	}
	return err
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
