package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"pet-adoption-match/internal/domain/matching"
)

type ScoresRepo struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewScoresRepo crea el cache persistente de scores.
// ttl <= 0 deshabilita el expiry.
func NewScoresRepo(db *sql.DB, ttl time.Duration) *ScoresRepo {
	return &ScoresRepo{db: db, ttl: ttl, now: time.Now}
}

// Get devuelve el record más reciente de la key. El expiry se aplica en el
// WHERE: un record vencido es un miss, nunca viaja de vuelta.
func (r *ScoresRepo) Get(ctx context.Context, adopterID, petID, fingerprint string) (matching.ScoreRecord, error) {
	cutoff := time.Time{}
	if r.ttl > 0 {
		cutoff = r.now().Add(-r.ttl)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, adopter_id, pet_id, fingerprint,
		       score, label, reasons, risks, missing_info, version,
		       created_at
		FROM score_records
		WHERE adopter_id = $1 AND pet_id = $2 AND fingerprint = $3
		  AND created_at > $4
		ORDER BY created_at DESC
		LIMIT 1
	`, adopterID, petID, fingerprint, cutoff)

	var rec matching.ScoreRecord
	var reasons, risks, missing []byte
	err := row.Scan(
		&rec.ID,
		&rec.AdopterID,
		&rec.PetID,
		&rec.Fingerprint,
		&rec.Score,
		&rec.Label,
		&reasons,
		&risks,
		&missing,
		&rec.Version,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return matching.ScoreRecord{}, ErrNotFound
	}
	if err != nil {
		return matching.ScoreRecord{}, err
	}

	rec.Reasons = fromJSONList(reasons)
	rec.Risks = fromJSONList(risks)
	rec.MissingInfo = fromJSONList(missing)
	return rec, nil
}

// Put inserta siempre (append-only): nunca UPDATE sobre un score existente.
func (r *ScoresRepo) Put(ctx context.Context, rec matching.ScoreRecord) error {
	if rec.AdopterID == "" {
		return errors.New("anonymous score records are not persisted")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO score_records (
			id, adopter_id, pet_id, fingerprint,
			score, label, reasons, risks, missing_info, version,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		rec.ID,
		rec.AdopterID,
		rec.PetID,
		rec.Fingerprint,
		rec.Score,
		rec.Label,
		toJSONList(rec.Reasons),
		toJSONList(rec.Risks),
		toJSONList(rec.MissingInfo),
		rec.Version,
		rec.CreatedAt,
	)
	return err
}

// Las listas de strings van como JSONB; database/sql no tiene arrays nativos
// sin pasar a la API binaria de pgx.
func toJSONList(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return b
}

func fromJSONList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
