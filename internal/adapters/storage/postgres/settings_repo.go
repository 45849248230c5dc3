package postgres

import (
	"context"
	"database/sql"

	"pet-adoption-match/internal/domain/settings"
)

type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context) (settings.Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, model, base_url, max_tokens, temperature, enabled,
		       credential_blob, updated_by, created_at, updated_at
		FROM scoring_settings
		WHERE id = $1
	`, settings.SingletonID)

	var s settings.Settings
	err := row.Scan(
		&s.ID,
		&s.Model,
		&s.BaseURL,
		&s.MaxTokens,
		&s.Temperature,
		&s.Enabled,
		&s.CredentialBlob,
		&s.UpdatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return settings.Settings{}, ErrNotFound
	}
	if err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s settings.Settings) error {
	if s.ID == "" {
		s.ID = settings.SingletonID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoring_settings (
			id, model, base_url, max_tokens, temperature, enabled,
			credential_blob, updated_by, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			model = EXCLUDED.model,
			base_url = EXCLUDED.base_url,
			max_tokens = EXCLUDED.max_tokens,
			temperature = EXCLUDED.temperature,
			enabled = EXCLUDED.enabled,
			credential_blob = EXCLUDED.credential_blob,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`,
		s.ID,
		s.Model,
		s.BaseURL,
		s.MaxTokens,
		s.Temperature,
		s.Enabled,
		s.CredentialBlob,
		s.UpdatedBy,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}
