package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-adoption-match/internal/domain/requests"
)

type RequestsRepo struct {
	db *sql.DB
}

func NewRequestsRepo(db *sql.DB) *RequestsRepo {
	return &RequestsRepo{db: db}
}

const requestColumns = `
	id, pet_id, pet_name, shelter_id,
	adopter_id, adopter_name, adopter_contact,
	status,
	compat_score, compat_label, compat_reasons,
	message, escalated, escalated_at,
	created_at, updated_at`

func (r *RequestsRepo) Create(ctx context.Context, req requests.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		req.ID,
		req.PetID,
		req.PetName,
		req.ShelterID,
		req.AdopterID,
		req.AdopterName,
		req.AdopterContact,
		req.Status,
		toNullInt(req.CompatScore),
		req.CompatLabel,
		toJSONList(req.CompatReasons),
		req.Message,
		req.Escalated,
		toNullTime(req.EscalatedAt),
		req.CreatedAt,
		req.UpdatedAt,
	)
	return err
}

func (r *RequestsRepo) Update(ctx context.Context, req requests.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE adoption_requests
		SET
			status = $2,
			message = $3,
			escalated = $4,
			escalated_at = $5,
			updated_at = $6
		WHERE id = $1
	`,
		req.ID,
		req.Status,
		req.Message,
		req.Escalated,
		toNullTime(req.EscalatedAt),
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RequestsRepo) GetByID(ctx context.Context, id string) (requests.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return requests.Request{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM adoption_requests
		WHERE id = $1
	`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return requests.Request{}, ErrNotFound
	}
	return req, err
}

func (r *RequestsRepo) ListByPet(ctx context.Context, petID string) ([]requests.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM adoption_requests
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (r *RequestsRepo) ListByAdopter(ctx context.Context, adopterID string) ([]requests.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM adoption_requests
		WHERE adopter_id = $1
		ORDER BY created_at ASC
	`, adopterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

// TryApprove: un solo UPDATE condicional hace el test-and-set del slot de
// aprobado de la mascota. El NOT EXISTS y el SET son la misma sentencia,
// así dos aprobaciones concurrentes no pueden ganar ambas.
func (r *RequestsRepo) TryApprove(ctx context.Context, petID, requestID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE adoption_requests
		SET status = 'approved', updated_at = $3
		WHERE id = $1 AND pet_id = $2
		  AND status NOT IN ('approved','rejected','cancelled')
		  AND NOT EXISTS (
			SELECT 1 FROM adoption_requests other
			WHERE other.pet_id = $2
			  AND other.id <> $1
			  AND other.status = 'approved'
		  )
	`, requestID, petID, now)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	// No ganó: distinguimos conflicto del invariante de "no existe / terminal".
	var count int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM adoption_requests
		WHERE pet_id = $1 AND id <> $2 AND status = 'approved'
	`, petID, requestID).Scan(&count)
	if err == nil && count > 0 {
		return requests.ErrApprovedConflict
	}
	return ErrNotFound
}

func scanRequest(row rowScanner) (requests.Request, error) {
	var req requests.Request
	var score sql.NullInt64
	var escalatedAt sql.NullTime
	var reasons []byte

	err := row.Scan(
		&req.ID,
		&req.PetID,
		&req.PetName,
		&req.ShelterID,
		&req.AdopterID,
		&req.AdopterName,
		&req.AdopterContact,
		&req.Status,
		&score,
		&req.CompatLabel,
		&reasons,
		&req.Message,
		&req.Escalated,
		&escalatedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return requests.Request{}, err
	}

	if score.Valid {
		v := int(score.Int64)
		req.CompatScore = &v
	}
	if escalatedAt.Valid {
		t := escalatedAt.Time
		req.EscalatedAt = &t
	}
	req.CompatReasons = fromJSONList(reasons)

	return req, nil
}

func collectRequests(rows *sql.Rows) ([]requests.Request, error) {
	out := make([]requests.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
