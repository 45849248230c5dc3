package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"pet-adoption-match/internal/adapters/notify/lognotify"
	"pet-adoption-match/internal/adapters/scoring/openai"
	mem "pet-adoption-match/internal/adapters/storage/memory"
	pg "pet-adoption-match/internal/adapters/storage/postgres"
	"pet-adoption-match/internal/domain/matching"
	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/domain/requests"
	"pet-adoption-match/internal/domain/settings"
	"pet-adoption-match/internal/middleware"
	"pet-adoption-match/internal/platform/logger"
	"pet-adoption-match/internal/platform/ratelimit"
	"pet-adoption-match/internal/platform/secretbox"
	"pet-adoption-match/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// scoreTTL: retención advisory del cache de scores. Un miss por expiry
// solo dispara recomputación, no es correctness-critical.
const scoreTTL = 24 * time.Hour

// petDirectory adapta el servicio de pets a la vista mínima que necesita
// el módulo de solicitudes para el snapshot de creación.
type petDirectory struct {
	svc *pets.Service
}

func (d petDirectory) Snapshot(ctx context.Context, petID string) (requests.PetSnapshot, error) {
	p, err := d.svc.GetByID(ctx, petID)
	if err != nil {
		return requests.PetSnapshot{}, err
	}
	return requests.PetSnapshot{Name: p.Name, ShelterID: p.ShelterID}, nil
}

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Codec para la credencial de scoring en reposo. Obligatorio:
	// sin secreto de operador el servicio no debe arrancar.
	Codec *secretbox.Codec

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: logger; nil = desde env.
	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	if opts.Codec == nil {
		panic("router: secretbox codec is required (missing operator secret?)")
	}

	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		petRepo      pets.Repository
		scoresRepo   matching.ScoreRepository
		requestsRepo requests.Repository
		settingsRepo settings.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		scoresRepo = pg.NewScoresRepo(db, scoreTTL)
		requestsRepo = pg.NewRequestsRepo(db)
		settingsRepo = pg.NewSettingsRepo(db)
	} else {
		petRepo = mem.NewPetsRepo()
		scoresRepo = mem.NewScoresRepo(scoreTTL)
		requestsRepo = mem.NewRequestsRepo()
		settingsRepo = mem.NewSettingsRepo()
	}

	notifier := lognotify.New(log)
	scoringClient := openai.NewClient(log)

	// Test-calls del admin: throttle por actor, inyectado (no estado global).
	testLimiter := ratelimit.NewPerActor(rate.Every(time.Minute), 3)

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	settingsSvc := settings.NewService(settingsRepo, opts.Codec, notifier, testLimiter, scoringClient.Probe)
	matchingSvc := matching.NewService(petsSvc, scoresRepo, scoringClient, settingsSvc, log)
	requestsSvc := requests.NewService(requestsRepo, notifier, petDirectory{svc: petsSvc})

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	matching.RegisterRoutes(r, matchingSvc)
	requests.RegisterRoutes(r, requestsSvc)
	settings.RegisterRoutes(r, settingsSvc)

	return r
}
