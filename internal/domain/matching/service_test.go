package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/domain/settings"
)

// -------------------------
// Fakes
// -------------------------

type fakePets struct {
	items []pets.Pet
}

func (f *fakePets) ListAdoptable(ctx context.Context) ([]pets.Pet, error) {
	return f.items, nil
}

type scoreKey struct {
	adopterID, petID, fingerprint string
}

type fakeScores struct {
	byKey map[scoreKey]ScoreRecord
	puts  int
}

func newFakeScores() *fakeScores {
	return &fakeScores{byKey: map[scoreKey]ScoreRecord{}}
}

func (f *fakeScores) Get(ctx context.Context, adopterID, petID, fingerprint string) (ScoreRecord, error) {
	rec, ok := f.byKey[scoreKey{adopterID, petID, fingerprint}]
	if !ok {
		return ScoreRecord{}, errors.New("miss")
	}
	return rec, nil
}

func (f *fakeScores) Put(ctx context.Context, rec ScoreRecord) error {
	f.puts++
	f.byKey[scoreKey{rec.AdopterID, rec.PetID, rec.Fingerprint}] = rec
	return nil
}

type fakeScorer struct {
	calls   int
	perPet  map[string]ScoreOutcome
	failPet map[string]bool
}

func (f *fakeScorer) Score(ctx context.Context, profile AdopterProfile, pet pets.Pet, cfg settings.ScoringConfig) (ScoreOutcome, error) {
	f.calls++
	if f.failPet[pet.ID] {
		return ScoreOutcome{}, errors.New("upstream boom")
	}
	if out, ok := f.perPet[pet.ID]; ok {
		return out, nil
	}
	return ScoreOutcome{Score: 80, Label: LabelSuitable, Reasons: []string{"buen match"}, Version: SchemaVersion}, nil
}

type fakeConfig struct {
	cfg *settings.ScoringConfig
}

func (f *fakeConfig) ActiveConfig(ctx context.Context) *settings.ScoringConfig {
	return f.cfg
}

func enabledConfig() *settings.ScoringConfig {
	return &settings.ScoringConfig{
		Model:       settings.DefaultModel,
		MaxTokens:   settings.DefaultMaxTokens,
		Temperature: settings.DefaultTemperature,
		APIKey:      "sk-test",
	}
}

func newTestService(petItems []pets.Pet, scores *fakeScores, scorer *fakeScorer, cfg *settings.ScoringConfig) *Service {
	svc := NewService(&fakePets{items: petItems}, scores, scorer, &fakeConfig{cfg: cfg}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestRecommend_EmptyProfileRejected(t *testing.T) {
	svc := newTestService(nil, newFakeScores(), &fakeScorer{}, nil)

	_, err := svc.Recommend(context.Background(), AdopterProfile{}, "adopter-1")
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecommend_HardFilterShortCircuits(t *testing.T) {
	pet := basePet() // no cat-friendly
	scores := newFakeScores()
	scorer := &fakeScorer{}
	svc := newTestService([]pets.Pet{pet}, scores, scorer, enabledConfig())

	profile := baseProfile()
	profile.OwnsCats = true

	out, err := svc.Recommend(context.Background(), profile, "adopter-1")
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].Score != 0 || out[0].Label != LabelNotSuitable {
		t.Fatalf("expected 0/NOT_SUITABLE, got %d/%s", out[0].Score, out[0].Label)
	}
	if len(out[0].Reasons) != 1 || out[0].Reasons[0] != ReasonCatsAtHome {
		t.Fatalf("expected hard-filter reason, got %#v", out[0].Reasons)
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer should not run for hard-filtered pets (calls=%d)", scorer.calls)
	}
	if scores.puts != 0 {
		t.Fatalf("hard-filter results must not be cached (puts=%d)", scores.puts)
	}
}

func TestRecommend_NoConfigFallsBack_NotCached(t *testing.T) {
	scores := newFakeScores()
	scorer := &fakeScorer{}
	svc := newTestService([]pets.Pet{basePet()}, scores, scorer, nil)

	out, err := svc.Recommend(context.Background(), baseProfile(), "adopter-1")
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if out[0].Score != FallbackScore || out[0].Label != LabelConditional {
		t.Fatalf("expected %d/CONDITIONAL fallback, got %d/%s", FallbackScore, out[0].Score, out[0].Label)
	}
	if out[0].Reasons[0] != ReasonScoringNotConfigured {
		t.Fatalf("expected not-configured reason, got %#v", out[0].Reasons)
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer must not run without config")
	}
	if scores.puts != 0 {
		t.Fatalf("fallback results must never hit the cache")
	}
}

func TestRecommend_ScorerFailureFallsBack_NotCached(t *testing.T) {
	pet := basePet()
	scores := newFakeScores()
	scorer := &fakeScorer{failPet: map[string]bool{pet.ID: true}}
	svc := newTestService([]pets.Pet{pet}, scores, scorer, enabledConfig())

	out, err := svc.Recommend(context.Background(), baseProfile(), "adopter-1")
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if out[0].Score != FallbackScore || out[0].Reasons[0] != ReasonScoringUnavailable {
		t.Fatalf("expected unavailable fallback, got %d %#v", out[0].Score, out[0].Reasons)
	}
	if scores.puts != 0 {
		t.Fatalf("fallback results must never hit the cache")
	}
}

func TestRecommend_SuccessIsCached_AndHitSkipsScorer(t *testing.T) {
	pet := basePet()
	scores := newFakeScores()
	scorer := &fakeScorer{}
	svc := newTestService([]pets.Pet{pet}, scores, scorer, enabledConfig())

	profile := baseProfile()

	first, err := svc.Recommend(context.Background(), profile, "adopter-1")
	if err != nil {
		t.Fatalf("Recommend #1 error: %v", err)
	}
	if scorer.calls != 1 || scores.puts != 1 {
		t.Fatalf("expected 1 call + 1 put, got calls=%d puts=%d", scorer.calls, scores.puts)
	}

	second, err := svc.Recommend(context.Background(), profile, "adopter-1")
	if err != nil {
		t.Fatalf("Recommend #2 error: %v", err)
	}
	if scorer.calls != 1 {
		t.Fatalf("cache hit should skip the scorer, calls=%d", scorer.calls)
	}
	if second[0].Score != first[0].Score || second[0].Label != first[0].Label {
		t.Fatalf("cached result diverged: %+v vs %+v", second[0], first[0])
	}

	// editar el perfil cambia el fingerprint: miss y re-score
	profile.Interests = "ahora con jardín"
	if _, err := svc.Recommend(context.Background(), profile, "adopter-1"); err != nil {
		t.Fatalf("Recommend #3 error: %v", err)
	}
	if scorer.calls != 2 {
		t.Fatalf("profile edit should force recomputation, calls=%d", scorer.calls)
	}
}

func TestRecommend_AnonymousSkipsCache(t *testing.T) {
	pet := basePet()
	scores := newFakeScores()
	scorer := &fakeScorer{}
	svc := newTestService([]pets.Pet{pet}, scores, scorer, enabledConfig())

	for i := 0; i < 2; i++ {
		if _, err := svc.Recommend(context.Background(), baseProfile(), ""); err != nil {
			t.Fatalf("Recommend error: %v", err)
		}
	}
	if scores.puts != 0 {
		t.Fatalf("anonymous lookups must not write the cache (puts=%d)", scores.puts)
	}
	if scorer.calls != 2 {
		t.Fatalf("anonymous lookups must not read the cache (calls=%d)", scorer.calls)
	}
}

func TestRecommend_RankingIsStableDescending(t *testing.T) {
	p1 := basePet()
	p1.ID = "pet-1"
	p2 := basePet()
	p2.ID = "pet-2"
	p3 := basePet()
	p3.ID = "pet-3"

	scorer := &fakeScorer{perPet: map[string]ScoreOutcome{
		"pet-1": {Score: 55, Label: LabelConditional, Version: SchemaVersion},
		"pet-2": {Score: 90, Label: LabelSuitable, Version: SchemaVersion},
		"pet-3": {Score: 55, Label: LabelConditional, Version: SchemaVersion},
	}}
	svc := newTestService([]pets.Pet{p1, p2, p3}, newFakeScores(), scorer, enabledConfig())

	out, err := svc.Recommend(context.Background(), baseProfile(), "adopter-1")
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected full listing, got %d", len(out))
	}
	// 90 primero; el empate 55/55 conserva discovery order (pet-1 antes que pet-3)
	if out[0].PetID != "pet-2" || out[1].PetID != "pet-1" || out[2].PetID != "pet-3" {
		t.Fatalf("unexpected ranking: %s, %s, %s", out[0].PetID, out[1].PetID, out[2].PetID)
	}
}

func TestRecommend_PerPetFailureIsIsolated(t *testing.T) {
	p1 := basePet()
	p1.ID = "pet-1"
	p2 := basePet()
	p2.ID = "pet-2"

	scorer := &fakeScorer{
		perPet:  map[string]ScoreOutcome{"pet-2": {Score: 88, Label: LabelSuitable, Version: SchemaVersion}},
		failPet: map[string]bool{"pet-1": true},
	}
	svc := newTestService([]pets.Pet{p1, p2}, newFakeScores(), scorer, enabledConfig())

	out, err := svc.Recommend(context.Background(), baseProfile(), "adopter-1")
	if err != nil {
		t.Fatalf("a single upstream failure must not abort the batch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected both entries, got %d", len(out))
	}
	// el real (88) rankea arriba del fallback (50)
	if out[0].PetID != "pet-2" || out[1].PetID != "pet-1" {
		t.Fatalf("unexpected order: %s, %s", out[0].PetID, out[1].PetID)
	}
	if out[1].Score != FallbackScore || out[1].Reasons[0] != ReasonScoringUnavailable {
		t.Fatalf("failed pet should degrade to fallback, got %+v", out[1])
	}
}

func TestLatestScore(t *testing.T) {
	pet := basePet()
	scores := newFakeScores()
	svc := newTestService([]pets.Pet{pet}, scores, &fakeScorer{}, enabledConfig())

	profile := baseProfile()

	if _, err := svc.LatestScore(context.Background(), "adopter-1", pet.ID, profile); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before scoring, got %v", err)
	}

	if _, err := svc.Recommend(context.Background(), profile, "adopter-1"); err != nil {
		t.Fatalf("Recommend error: %v", err)
	}

	rec, err := svc.LatestScore(context.Background(), "adopter-1", pet.ID, profile)
	if err != nil {
		t.Fatalf("LatestScore error: %v", err)
	}
	if rec.Score != 80 || rec.Label != LabelSuitable {
		t.Fatalf("unexpected cached record: %+v", rec)
	}

	if _, err := svc.LatestScore(context.Background(), "", pet.ID, profile); err != ErrInvalidInput {
		t.Fatalf("anonymous LatestScore should be ErrInvalidInput, got %v", err)
	}
}
