package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByShelter(ctx context.Context, shelterID string) ([]Pet, error)

	// ListAdoptable devuelve fichas disponibles y no archivadas,
	// en orden de publicación (discovery order estable para el ranking).
	ListAdoptable(ctx context.Context) ([]Pet, error)
}
