package requests

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Request) error
	Update(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	ListByPet(ctx context.Context, petID string) ([]Request, error)
	ListByAdopter(ctx context.Context, adopterID string) ([]Request, error)

	// TryApprove es el write condicional atómico del invariante
	// "una mascota, un adopter aprobado": marca la solicitud approved
	// solo si ninguna otra solicitud de la misma mascota ya lo está.
	// Devuelve ErrApprovedConflict si otra ganó, ErrNotFound si la
	// solicitud no existe o ya es terminal. Nada de check-then-act
	// en dos pasos: el check y el set son una sola operación del storage.
	TryApprove(ctx context.Context, petID, requestID string, now time.Time) error
}
