package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// canonicalProfile es la serialización canónica del perfil para fingerprint:
// campos normalizados (trim + lowercase) y orden fijo de keys vía struct tags.
// Cualquier cambio de forma acá invalida caches existentes, a propósito.
type canonicalProfile struct {
	LivingSpace      string `json:"living_space"`
	EnergyPreference string `json:"energy_preference"`
	Experience       string `json:"experience"`
	Kids             string `json:"kids"`
	CareTolerance    string `json:"care_tolerance"`
	OwnsCats         bool   `json:"owns_cats"`
	TimeAvailability string `json:"time_availability"`
	PreferredSpecies string `json:"preferred_species"`
	PreferredSize    string `json:"preferred_size"`
	Interests        string `json:"interests"`
}

// Fingerprint deriva el hash estable del perfil que compone la cache key.
// Editar un solo campo del perfil produce otro fingerprint y fuerza
// recomputación; dos perfiles idénticos siempre colisionan en la misma key.
func Fingerprint(p AdopterProfile) string {
	c := canonicalProfile{
		LivingSpace:      norm(string(p.LivingSpace)),
		EnergyPreference: norm(string(p.EnergyPreference)),
		Experience:       norm(string(p.Experience)),
		Kids:             norm(string(p.Kids)),
		CareTolerance:    norm(p.CareTolerance),
		OwnsCats:         p.OwnsCats,
		TimeAvailability: norm(string(p.TimeAvailability)),
		PreferredSpecies: norm(string(p.PreferredSpecies)),
		PreferredSize:    norm(string(p.PreferredSize)),
		Interests:        truncate(strings.TrimSpace(p.Interests), MaxInterestsChars),
	}

	// json.Marshal de un struct emite los campos en orden de declaración:
	// serialización canónica sin ordenar keys a mano.
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
