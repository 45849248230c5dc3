package matching

import (
	"strings"
	"testing"
)

func TestFingerprint_StableForSameProfile(t *testing.T) {
	p := baseProfile()
	p.Interests = "senderismo y mates largos"

	first := Fingerprint(p)
	if len(first) != 64 {
		t.Fatalf("expected sha256 hex (64 chars), got %d: %q", len(first), first)
	}
	for i := 0; i < 5; i++ {
		if got := Fingerprint(p); got != first {
			t.Fatalf("fingerprint not stable: %q vs %q", got, first)
		}
	}
}

func TestFingerprint_NormalizesCaseAndSpace(t *testing.T) {
	a := baseProfile()
	b := baseProfile()
	b.LivingSpace = LivingSpace("  HOUSE ")
	b.Interests = a.Interests

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("expected trim+lowercase normalization to collapse fingerprints")
	}
}

func TestFingerprint_ChangesWhenAnyFieldChanges(t *testing.T) {
	base := baseProfile()
	ref := Fingerprint(base)

	mutations := map[string]func(*AdopterProfile){
		"living_space":      func(p *AdopterProfile) { p.LivingSpace = LivingApartment },
		"experience":        func(p *AdopterProfile) { p.Experience = ExperienceExperienced },
		"kids":              func(p *AdopterProfile) { p.Kids = KidsToddlers },
		"owns_cats":         func(p *AdopterProfile) { p.OwnsCats = true },
		"time_availability": func(p *AdopterProfile) { p.TimeAvailability = TimeLow },
		"interests":         func(p *AdopterProfile) { p.Interests = "pájaros" },
	}

	for field, mutate := range mutations {
		p := base
		mutate(&p)
		if Fingerprint(p) == ref {
			t.Fatalf("mutating %s did not change the fingerprint", field)
		}
	}
}

func TestFingerprint_TruncatesLongInterests(t *testing.T) {
	long := strings.Repeat("a", MaxInterestsChars+200)

	a := baseProfile()
	a.Interests = long
	b := baseProfile()
	b.Interests = long[:MaxInterestsChars]

	// todo lo que excede el límite no participa de la key
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("expected interests beyond the cap to be ignored")
	}
}
