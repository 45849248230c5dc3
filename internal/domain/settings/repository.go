package settings

import "context"

type Repository interface {
	// Get devuelve el registro singleton; ErrNotFound del adapter si no existe.
	Get(ctx context.Context) (Settings, error)

	// Save hace upsert del singleton.
	Save(ctx context.Context, s Settings) error
}
