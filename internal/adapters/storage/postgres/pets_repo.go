package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-adoption-match/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, shelter_id,
	name, species, breed, age_months, size,
	energy_level, living_space_need, experience_need,
	kid_friendly, special_care, cat_friendly,
	description, available, archived,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		p.ID,
		p.ShelterID,
		p.Name,
		p.Species,
		p.Breed,
		p.AgeMonths,
		p.Size,
		p.EnergyLevel,
		p.LivingSpaceNeed,
		p.ExperienceNeed,
		p.KidFriendly,
		p.SpecialCare,
		p.CatFriendly,
		p.Description,
		p.Available,
		p.Archived,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			age_months = $5,
			size = $6,
			energy_level = $7,
			living_space_need = $8,
			experience_need = $9,
			kid_friendly = $10,
			special_care = $11,
			cat_friendly = $12,
			description = $13,
			available = $14,
			archived = $15,
			updated_at = $16
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.AgeMonths,
		p.Size,
		p.EnergyLevel,
		p.LivingSpaceNeed,
		p.ExperienceNeed,
		p.KidFriendly,
		p.SpecialCare,
		p.CatFriendly,
		p.Description,
		p.Available,
		p.Archived,
		p.UpdatedAt,
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

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)

	p, err := scanPet(row)
	if err == sql.ErrNoRows {
		return pets.Pet{}, ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByShelter(ctx context.Context, shelterID string) ([]pets.Pet, error) {
	shelterID = strings.TrimSpace(shelterID)
	if shelterID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE shelter_id = $1
		ORDER BY created_at ASC
	`, shelterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

func (r *PetsRepo) ListAdoptable(ctx context.Context) ([]pets.Pet, error) {
	// Discovery order estable: publicación ascendente.
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE available = TRUE AND archived = FALSE
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	err := row.Scan(
		&p.ID,
		&p.ShelterID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.AgeMonths,
		&p.Size,
		&p.EnergyLevel,
		&p.LivingSpaceNeed,
		&p.ExperienceNeed,
		&p.KidFriendly,
		&p.SpecialCare,
		&p.CatFriendly,
		&p.Description,
		&p.Available,
		&p.Archived,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectPets(rows *sql.Rows) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
