package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, rabbit, bird, other
type Species string

const (
	SpeciesDog    Species = "dog"
	SpeciesCat    Species = "cat"
	SpeciesRabbit Species = "rabbit"
	SpeciesBird   Species = "bird"
	SpeciesOther  Species = "other"
)

// EnergyLevel del animal.
// @Enum low, moderate, high, very_high
type EnergyLevel string

const (
	EnergyLow      EnergyLevel = "low"
	EnergyModerate EnergyLevel = "moderate"
	EnergyHigh     EnergyLevel = "high"
	EnergyVeryHigh EnergyLevel = "very_high"
)

// LivingSpaceNeed es el espacio mínimo que exige el animal.
// @Enum apartment_ok, house, house_with_yard
type LivingSpaceNeed string

const (
	NeedsApartmentOK   LivingSpaceNeed = "apartment_ok"
	NeedsHouse         LivingSpaceNeed = "house"
	NeedsHouseWithYard LivingSpaceNeed = "house_with_yard"
)

// ExperienceNeed es la experiencia mínima del adoptante.
// @Enum first_time_ok, some_experience, experienced
type ExperienceNeed string

const (
	ExperienceFirstTimeOK ExperienceNeed = "first_time_ok"
	ExperienceSome        ExperienceNeed = "some_experience"
	ExperienceRequired    ExperienceNeed = "experienced"
)

// KidFriendliness indica con qué niños convive bien.
// @Enum all_ages, older_kids, none
type KidFriendliness string

const (
	KidsAllAges   KidFriendliness = "all_ages"
	KidsOlderOnly KidFriendliness = "older_kids"
	KidsNone      KidFriendliness = "none"
)

// SpecialCare categoriza cuidados especiales.
// @Enum none, medical, behavioral, senior
type SpecialCare string

const (
	CareNone       SpecialCare = "none"
	CareMedical    SpecialCare = "medical"
	CareBehavioral SpecialCare = "behavioral"
	CareSenior     SpecialCare = "senior"
)

// Size del animal adulto.
// @Enum small, medium, large, giant
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeGiant  Size = "giant"
)

// Pet es la ficha de adopción de un animal publicado por un refugio.
// El core de matching solo lee fichas disponibles y no archivadas.
type Pet struct {
	ID        string
	ShelterID string

	Name      string
	Species   Species
	Breed     string
	AgeMonths int
	Size      Size

	EnergyLevel     EnergyLevel
	LivingSpaceNeed LivingSpaceNeed
	ExperienceNeed  ExperienceNeed
	KidFriendly     KidFriendliness
	SpecialCare     SpecialCare

	// CatFriendly aplica a no-gatos: convive bien con gatos residentes.
	CatFriendly bool

	Description string

	Available bool
	Archived  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HighCare marca animales de alta demanda de cuidado para el hard filter
// de disponibilidad horaria: cuidado especial explícito o energía alta.
func (p Pet) HighCare() bool {
	if p.SpecialCare != "" && p.SpecialCare != CareNone {
		return true
	}
	return p.EnergyLevel == EnergyHigh || p.EnergyLevel == EnergyVeryHigh
}
