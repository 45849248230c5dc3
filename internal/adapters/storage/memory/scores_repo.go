package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-adoption-match/internal/domain/matching"
)

type scoreKey struct {
	adopterID   string
	petID       string
	fingerprint string
}

type scoresRepo struct {
	mu    sync.RWMutex
	byKey map[scoreKey][]matching.ScoreRecord

	ttl time.Duration
	now func() time.Time
}

// NewScoresRepo crea el cache de scores con expiry opcional.
// ttl <= 0 deshabilita el expiry (los records no caducan).
func NewScoresRepo(ttl time.Duration) matching.ScoreRepository {
	return &scoresRepo{
		byKey: make(map[scoreKey][]matching.ScoreRecord),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *scoresRepo) Get(ctx context.Context, adopterID, petID, fingerprint string) (matching.ScoreRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.byKey[scoreKey{adopterID, petID, fingerprint}]
	if len(recs) == 0 {
		return matching.ScoreRecord{}, ErrNotFound
	}

	// Más reciente primero; uno expirado se comporta como miss,
	// nunca devolvemos data vencida.
	latest := recs[len(recs)-1]
	if r.ttl > 0 && r.now().Sub(latest.CreatedAt) > r.ttl {
		return matching.ScoreRecord{}, ErrNotFound
	}
	return latest, nil
}

func (r *scoresRepo) Put(ctx context.Context, rec matching.ScoreRecord) error {
	if rec.ID == "" || rec.PetID == "" || rec.Fingerprint == "" {
		return errors.New("score record incomplete")
	}
	if rec.AdopterID == "" {
		// contextos anónimos jamás se persisten
		return errors.New("anonymous score records are not persisted")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Append-only por key: no se pisa historia.
	k := scoreKey{rec.AdopterID, rec.PetID, rec.Fingerprint}
	r.byKey[k] = append(r.byKey[k], rec)
	return nil
}
