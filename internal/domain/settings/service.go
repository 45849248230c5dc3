package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-match/internal/platform/ratelimit"
	"pet-adoption-match/internal/platform/secretbox"
	"pet-adoption-match/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("too many test calls; try again later")
)

// ProbeFunc hace una llamada real de prueba al servicio de scoring con la
// config resuelta. Se inyecta desde el wiring (cierra sobre el scoring client)
// para no acoplar este paquete al adapter.
type ProbeFunc func(ctx context.Context, cfg ScoringConfig) error

type Service struct {
	repo     Repository
	codec    *secretbox.Codec
	notifier notify.Notifier
	limiter  *ratelimit.PerActor
	probe    ProbeFunc
	now      func() time.Time
}

func NewService(repo Repository, codec *secretbox.Codec, notifier notify.Notifier, limiter *ratelimit.PerActor, probe ProbeFunc) *Service {
	return &Service{
		repo:     repo,
		codec:    codec,
		notifier: notifier,
		limiter:  limiter,
		probe:    probe,
		now:      time.Now,
	}
}

// ActiveConfig resuelve la configuración vigente de scoring.
// Devuelve nil cuando: no hay registro, scoring deshabilitado, no hay
// credencial guardada, o el descifrado falla. Todo caller trata nil como
// "scoring no disponible" y degrada, nunca corta.
func (s *Service) ActiveConfig(ctx context.Context) *ScoringConfig {
	rec, err := s.repo.Get(ctx)
	if err != nil {
		return nil
	}
	if !rec.Enabled {
		return nil
	}
	if strings.TrimSpace(rec.CredentialBlob) == "" {
		return nil
	}

	key := s.codec.Decrypt(rec.CredentialBlob)
	if key == nil {
		return nil
	}

	cfg := ScoringConfig{
		Model:       rec.Model,
		BaseURL:     rec.BaseURL,
		MaxTokens:   rec.MaxTokens,
		Temperature: rec.Temperature,
		APIKey:      *key,
	}
	applyDefaults(&cfg)
	return &cfg
}

// Projection devuelve la vista admin. Si nunca se configuró nada,
// devuelve la proyección default (disabled, sin credencial) en vez de 404.
func (s *Service) Projection(ctx context.Context) Projection {
	rec, err := s.repo.Get(ctx)
	if err != nil {
		return Projection{
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		}
	}
	return toProjection(rec)
}

type UpdateInput struct {
	// Punteros: nil = no tocar el campo.
	Model       *string
	BaseURL     *string
	MaxTokens   *int
	Temperature *float64
	Enabled     *bool

	// Credential plaintext; se cifra acá y solo se guarda el blob.
	// nil = conservar la credencial existente.
	Credential *string
}

// Update aplica cambios del admin y re-cifra la credencial si vino una nueva.
func (s *Service) Update(ctx context.Context, in UpdateInput, actor string) (Projection, error) {
	if in.MaxTokens != nil && *in.MaxTokens <= 0 {
		return Projection{}, ErrInvalidInput
	}
	if in.Temperature != nil && (*in.Temperature < 0 || *in.Temperature > 2) {
		return Projection{}, ErrInvalidInput
	}

	now := s.now()

	rec, err := s.repo.Get(ctx)
	if err != nil {
		// primer write: arrancamos del default
		rec = Settings{
			ID:          SingletonID,
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			CreatedAt:   now,
		}
	}

	if in.Model != nil {
		rec.Model = strings.TrimSpace(*in.Model)
	}
	if in.BaseURL != nil {
		rec.BaseURL = strings.TrimRight(strings.TrimSpace(*in.BaseURL), "/")
	}
	if in.MaxTokens != nil {
		rec.MaxTokens = *in.MaxTokens
	}
	if in.Temperature != nil {
		rec.Temperature = *in.Temperature
	}
	if in.Enabled != nil {
		rec.Enabled = *in.Enabled
	}
	if in.Credential != nil {
		cred := strings.TrimSpace(*in.Credential)
		if cred == "" {
			rec.CredentialBlob = ""
		} else {
			blob, err := s.codec.Encrypt(cred)
			if err != nil {
				return Projection{}, err
			}
			rec.CredentialBlob = blob
		}
	}

	rec.UpdatedBy = strings.TrimSpace(actor)
	rec.UpdatedAt = now

	if err := s.repo.Save(ctx, rec); err != nil {
		return Projection{}, err
	}

	s.audit(ctx, "settings_updated", "ok", actor, 0)
	return toProjection(rec), nil
}

type TestResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Latency int64  `json:"latency_ms"`
}

// TestCall hace una llamada de prueba al scoring con throttle por actor.
// El throttle es dependencia inyectada, no estado global del proceso.
func (s *Service) TestCall(ctx context.Context, actor string) (TestResult, error) {
	if !s.limiter.Allow(actor) {
		s.audit(ctx, "scoring_test", "throttled", actor, 0)
		return TestResult{}, ErrRateLimited
	}

	cfg := s.ActiveConfig(ctx)
	if cfg == nil {
		s.audit(ctx, "scoring_test", "not_configured", actor, 0)
		return TestResult{OK: false, Message: "scoring is not configured or disabled"}, nil
	}

	if s.probe == nil {
		// sin probe inyectado solo validamos que la config resuelva
		s.audit(ctx, "scoring_test", "ok", actor, 0)
		return TestResult{OK: true, Message: "configuration resolves; no probe wired"}, nil
	}

	start := s.now()
	err := s.probe(ctx, *cfg)
	latency := s.now().Sub(start)

	if err != nil {
		s.audit(ctx, "scoring_test", "failed", actor, latency)
		// el detalle del error upstream no viaja al cliente; puede contener URLs internas
		return TestResult{OK: false, Message: "scoring call failed", Latency: latency.Milliseconds()}, nil
	}

	s.audit(ctx, "scoring_test", "ok", actor, latency)
	return TestResult{OK: true, Message: "scoring call succeeded", Latency: latency.Milliseconds()}, nil
}

func (s *Service) audit(ctx context.Context, typ, outcome, actor string, latency time.Duration) {
	if s.notifier == nil {
		return
	}
	s.notifier.Audit(ctx, notify.Event{
		Type:    typ,
		Outcome: outcome,
		Actor:   strings.TrimSpace(actor),
		Latency: latency,
	})
}

func applyDefaults(cfg *ScoringConfig) {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
}

func toProjection(rec Settings) Projection {
	p := Projection{
		Model:             rec.Model,
		BaseURL:           rec.BaseURL,
		MaxTokens:         rec.MaxTokens,
		Temperature:       rec.Temperature,
		Enabled:           rec.Enabled,
		CredentialPresent: strings.TrimSpace(rec.CredentialBlob) != "",
		UpdatedBy:         rec.UpdatedBy,
		UpdatedAt:         rec.UpdatedAt,
	}
	if strings.TrimSpace(p.Model) == "" {
		p.Model = DefaultModel
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if p.Temperature <= 0 {
		p.Temperature = DefaultTemperature
	}
	return p
}
