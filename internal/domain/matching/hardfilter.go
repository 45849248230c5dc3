package matching

import "pet-adoption-match/internal/domain/pets"

// Razones del hard filter. Igual que las de fallback, son contrato
// semi-público (tooltips "why not a match" en la UI + fixtures de tests).
const (
	ReasonCatsAtHome    = "adopter owns cats and this pet is not known to be cat-friendly"
	ReasonNeedsYard     = "adopter lives in an apartment but this pet needs a house with a yard"
	ReasonHighCareNeeds = "adopter has limited time for a pet with high care needs"
	ReasonNotKidSafe    = "household has children and this pet is not suitable for homes with kids"
)

// EvaluateHardFilters corre las reglas deterministas de descarte antes de
// cualquier llamada cara/no-determinista. Orden fijo, gana la primera que
// matchea: así la razón devuelta es reproducible para el mismo par.
// Sin side effects.
func EvaluateHardFilters(p AdopterProfile, pet pets.Pet) (reject bool, reason string) {
	// 1) Gatos residentes vs animal no cat-friendly
	if p.OwnsCats && pet.Species != pets.SpeciesCat && !pet.CatFriendly {
		return true, ReasonCatsAtHome
	}

	// 2) Departamento vs animal que exige casa con patio
	if p.LivingSpace == LivingApartment && pet.LivingSpaceNeed == pets.NeedsHouseWithYard {
		return true, ReasonNeedsYard
	}

	// 3) Poca disponibilidad horaria vs animal de alto cuidado
	if (p.TimeAvailability == TimeLow || p.TimeAvailability == TimeMinimal) && pet.HighCare() {
		return true, ReasonHighCareNeeds
	}

	// 4) Niños en casa vs animal no apto para niños
	if p.Kids != "" && p.Kids != KidsNone && pet.KidFriendly == pets.KidsNone {
		return true, ReasonNotKidSafe
	}

	return false, ""
}
