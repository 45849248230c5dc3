package matching

import (
	"strings"
	"time"

	"pet-adoption-match/internal/domain/pets"
)

// LivingSpace del adoptante.
// @Enum apartment, house, house_with_yard, farm
type LivingSpace string

const (
	LivingApartment     LivingSpace = "apartment"
	LivingHouse         LivingSpace = "house"
	LivingHouseWithYard LivingSpace = "house_with_yard"
	LivingFarm          LivingSpace = "farm"
)

// TimeAvailability del adoptante.
// @Enum minimal, low, moderate, high
type TimeAvailability string

const (
	TimeMinimal  TimeAvailability = "minimal"
	TimeLow      TimeAvailability = "low"
	TimeModerate TimeAvailability = "moderate"
	TimeHigh     TimeAvailability = "high"
)

// ExperienceLevel con animales.
// @Enum none, some, experienced
type ExperienceLevel string

const (
	ExperienceNone        ExperienceLevel = "none"
	ExperienceSome        ExperienceLevel = "some"
	ExperienceExperienced ExperienceLevel = "experienced"
)

// KidsAtHome describe presencia/edad de niños en el hogar.
// @Enum none, toddlers, school_age, teens
type KidsAtHome string

const (
	KidsNone      KidsAtHome = "none"
	KidsToddlers  KidsAtHome = "toddlers"
	KidsSchoolAge KidsAtHome = "school_age"
	KidsTeens     KidsAtHome = "teens"
)

// MaxInterestsChars limita el texto libre del perfil que viaja al scoring.
const MaxInterestsChars = 500

// AdopterProfile es el input de scoring. Es efímero: no se persiste como
// entidad, solo se deriva su fingerprint para las keys del cache.
type AdopterProfile struct {
	LivingSpace      LivingSpace
	EnergyPreference pets.EnergyLevel
	Experience       ExperienceLevel
	Kids             KidsAtHome
	CareTolerance    string // none, limited, open
	OwnsCats         bool
	TimeAvailability TimeAvailability
	PreferredSpecies pets.Species // vacío = cualquiera
	PreferredSize    pets.Size    // vacío = cualquiera
	Interests        string       // texto libre, se trunca a MaxInterestsChars
}

// IsZero detecta el perfil vacío (input inválido para Recommend).
func (p AdopterProfile) IsZero() bool {
	return p == AdopterProfile{}
}

// Label es el veredicto categórico del scoring.
// @Enum SUITABLE, CONDITIONAL, NOT_SUITABLE
type Label string

const (
	LabelSuitable    Label = "SUITABLE"
	LabelConditional Label = "CONDITIONAL"
	LabelNotSuitable Label = "NOT_SUITABLE"
)

// SchemaVersion del contrato de scoring estructurado.
const SchemaVersion = "v1"

// LabelForScore aplica el bucketing fijo del contrato:
// >=70 SUITABLE, 40-69 CONDITIONAL, <40 NOT_SUITABLE.
func LabelForScore(score int) Label {
	switch {
	case score >= 70:
		return LabelSuitable
	case score >= 40:
		return LabelConditional
	default:
		return LabelNotSuitable
	}
}

// ClampScore fuerza el score al rango [0,100]. No confiamos en la
// auto-consistencia del servicio externo.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// NormalizeLabel convierte cualquier label fuera del enum a CONDITIONAL.
func NormalizeLabel(raw string) Label {
	switch Label(strings.ToUpper(strings.TrimSpace(raw))) {
	case LabelSuitable:
		return LabelSuitable
	case LabelNotSuitable:
		return LabelNotSuitable
	default:
		return LabelConditional
	}
}

// ScoreOutcome es el resultado de una llamada de scoring ya validada
// (clamp + coerción de label) del lado cliente.
type ScoreOutcome struct {
	Score       int
	Label       Label
	Reasons     []string
	Risks       []string
	MissingInfo []string
	Version     string
}

// ScoreRecord es un score persistido. Inmutable: cualquier edición del
// perfil cambia el fingerprint y por lo tanto la key; nunca se pisa historia.
type ScoreRecord struct {
	ID string

	// AdopterID vacío = contexto anónimo; esos records no se persisten.
	AdopterID   string
	PetID       string
	Fingerprint string

	Score       int
	Label       Label
	Reasons     []string
	Risks       []string
	MissingInfo []string
	Version     string

	CreatedAt time.Time
}

// Razones fijas de fallback. Son contrato semi-público: la UI las muestra
// tal cual y los tests las verifican; cambiar el texto rompe ambos.
const (
	ReasonScoringNotConfigured = "scoring service not configured; manual review recommended"
	ReasonScoringUnavailable   = "scoring unavailable; manual review recommended"
)

// FallbackScore es el placeholder neutral cuando no hay scoring real.
// Distinto de un score bajo genuino: no se cachea jamás.
const FallbackScore = 50

// Recommendation es una entrada del listado rankeado que devuelve Recommend.
type Recommendation struct {
	PetID       string
	PetSummary  string
	Score       int
	Label       Label
	Reasons     []string
	Risks       []string
	MissingInfo []string
	Version     string
}

// PetSummary arma el resumen corto que acompaña cada recomendación.
func PetSummary(p pets.Pet) string {
	parts := []string{p.Name}
	if p.Breed != "" {
		parts = append(parts, string(p.Species)+" ("+p.Breed+")")
	} else if p.Species != "" {
		parts = append(parts, string(p.Species))
	}
	return strings.Join(parts, ", ")
}
