package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	AgeMonths int
	Size      string

	EnergyLevel     string
	LivingSpaceNeed string
	ExperienceNeed  string
	KidFriendly     string
	SpecialCare     string
	CatFriendly     bool

	Description string
}

func (s *Service) Create(ctx context.Context, shelterID string, in CreateInput) (Pet, error) {
	shelterID = strings.TrimSpace(shelterID)
	if shelterID == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Species) == "" {
		return Pet{}, ErrInvalidInput
	}
	if in.AgeMonths < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		ShelterID: shelterID,

		Name:      strings.TrimSpace(in.Name),
		Species:   Species(strings.TrimSpace(strings.ToLower(in.Species))),
		Breed:     strings.TrimSpace(in.Breed),
		AgeMonths: in.AgeMonths,
		Size:      Size(strings.TrimSpace(strings.ToLower(in.Size))),

		EnergyLevel:     EnergyLevel(defaultIfEmpty(in.EnergyLevel, string(EnergyModerate))),
		LivingSpaceNeed: LivingSpaceNeed(defaultIfEmpty(in.LivingSpaceNeed, string(NeedsApartmentOK))),
		ExperienceNeed:  ExperienceNeed(defaultIfEmpty(in.ExperienceNeed, string(ExperienceFirstTimeOK))),
		KidFriendly:     KidFriendliness(defaultIfEmpty(in.KidFriendly, string(KidsAllAges))),
		SpecialCare:     SpecialCare(defaultIfEmpty(in.SpecialCare, string(CareNone))),
		CatFriendly:     in.CatFriendly,

		Description: strings.TrimSpace(in.Description),

		Available: true,
		Archived:  false,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByShelter(ctx context.Context, shelterID string) ([]Pet, error) {
	shelterID = strings.TrimSpace(shelterID)
	if shelterID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByShelter(ctx, shelterID)
}

// ListAdoptable es la vista que consume el orquestador de recomendaciones.
func (s *Service) ListAdoptable(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAdoptable(ctx)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string
	Breed       *string
	AgeMonths   *int
	Size        *string
	EnergyLevel *string
	LivingSpace *string
	Experience  *string
	KidFriendly *string
	SpecialCare *string
	CatFriendly *bool
	Description *string
	Available   *bool
}

// Update aplica cambios parciales. Solo el refugio dueño de la ficha
// (o un admin, validado por el handler) puede modificarla.
func (s *Service) Update(ctx context.Context, petID, shelterID string, in UpdateInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if shelterID != "" && p.ShelterID != shelterID {
		return Pet{}, ErrForbidden
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.AgeMonths != nil {
		if *in.AgeMonths < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.AgeMonths = *in.AgeMonths
	}
	if in.Size != nil {
		p.Size = Size(strings.TrimSpace(strings.ToLower(*in.Size)))
	}
	if in.EnergyLevel != nil {
		p.EnergyLevel = EnergyLevel(strings.TrimSpace(strings.ToLower(*in.EnergyLevel)))
	}
	if in.LivingSpace != nil {
		p.LivingSpaceNeed = LivingSpaceNeed(strings.TrimSpace(strings.ToLower(*in.LivingSpace)))
	}
	if in.Experience != nil {
		p.ExperienceNeed = ExperienceNeed(strings.TrimSpace(strings.ToLower(*in.Experience)))
	}
	if in.KidFriendly != nil {
		p.KidFriendly = KidFriendliness(strings.TrimSpace(strings.ToLower(*in.KidFriendly)))
	}
	if in.SpecialCare != nil {
		p.SpecialCare = SpecialCare(strings.TrimSpace(strings.ToLower(*in.SpecialCare)))
	}
	if in.CatFriendly != nil {
		p.CatFriendly = *in.CatFriendly
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Available != nil {
		p.Available = *in.Available
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Archive saca la ficha del marketplace. No se borra: las solicitudes
// históricas siguen referenciando el snapshot.
func (s *Service) Archive(ctx context.Context, petID, shelterID string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if shelterID != "" && p.ShelterID != shelterID {
		return Pet{}, ErrForbidden
	}

	// Idempotente
	if p.Archived {
		return p, nil
	}

	p.Archived = true
	p.Available = false
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func defaultIfEmpty(v, def string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return def
	}
	return v
}
