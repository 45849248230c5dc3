package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"pet-adoption-match/internal/domain/matching"
	"pet-adoption-match/internal/domain/pets"
	"pet-adoption-match/internal/domain/settings"
)

// fakeTransport responde en memoria, sin red; captura el request para
// inspeccionarlo.
type fakeTransport struct {
	status  int
	content string // content del message (el JSON estructurado del modelo)
	rawBody string // body crudo; pisa content si no está vacío

	lastReq  *http.Request
	lastBody []byte
	calls    int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	f.lastReq = req
	if req.Body != nil {
		f.lastBody, _ = io.ReadAll(req.Body)
	}

	body := f.rawBody
	if body == "" {
		wrapped, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": f.content}},
			},
		})
		body = string(wrapped)
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}, nil
}

func testConfig() settings.ScoringConfig {
	return settings.ScoringConfig{
		Model:       "gpt-4o-mini",
		MaxTokens:   1000,
		Temperature: 0.2,
		APIKey:      "sk-test-credential",
	}
}

func testProfile() matching.AdopterProfile {
	return matching.AdopterProfile{
		LivingSpace:      matching.LivingHouse,
		Experience:       matching.ExperienceSome,
		Kids:             matching.KidsNone,
		TimeAvailability: matching.TimeHigh,
	}
}

func testPet() pets.Pet {
	return pets.Pet{
		ID:              "pet-1",
		Name:            "Roco",
		Species:         pets.SpeciesDog,
		AgeMonths:       30,
		Size:            pets.SizeMedium,
		EnergyLevel:     pets.EnergyModerate,
		LivingSpaceNeed: pets.NeedsApartmentOK,
		ExperienceNeed:  pets.ExperienceFirstTimeOK,
		KidFriendly:     pets.KidsAllAges,
		SpecialCare:     pets.CareNone,
	}
}

func TestScore_Success(t *testing.T) {
	tr := &fakeTransport{
		content: `{"score":85,"label":"SUITABLE","reasons":["espacio de sobra"],"risks":[],"missing_info":[],"version":"v1"}`,
	}
	c := NewClientWithTransport(nil, tr)

	out, err := c.Score(context.Background(), testProfile(), testPet(), testConfig())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 85 || out.Label != matching.LabelSuitable {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if tr.calls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", tr.calls)
	}

	// request: endpoint default, bearer, response_format json_object
	if got := tr.lastReq.URL.String(); got != DefaultBaseURL+completionsPath {
		t.Fatalf("unexpected endpoint: %s", got)
	}
	if got := tr.lastReq.Header.Get("Authorization"); got != "Bearer sk-test-credential" {
		t.Fatalf("unexpected auth header: %q", got)
	}

	var sent chatRequest
	if err := json.Unmarshal(tr.lastBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if sent.Model != "gpt-4o-mini" || sent.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request shape: %+v", sent)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", sent.Messages)
	}
}

func TestScore_AlternateBaseURL(t *testing.T) {
	tr := &fakeTransport{content: `{"score":50,"label":"CONDITIONAL","version":"v1"}`}
	c := NewClientWithTransport(nil, tr)

	cfg := testConfig()
	cfg.BaseURL = "https://proxy.internal.example/"

	if _, err := c.Score(context.Background(), testProfile(), testPet(), cfg); err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := tr.lastReq.URL.String(); got != "https://proxy.internal.example"+completionsPath {
		t.Fatalf("unexpected endpoint: %s", got)
	}
}

func TestScore_ClampsAndCoerces(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		wantScore int
		wantLabel matching.Label
	}{
		{
			name:      "score above range clamps to 100",
			content:   `{"score":140,"label":"SUITABLE","version":"v1"}`,
			wantScore: 100,
			wantLabel: matching.LabelSuitable,
		},
		{
			name:      "negative score clamps to 0",
			content:   `{"score":-5,"label":"NOT_SUITABLE","version":"v1"}`,
			wantScore: 0,
			wantLabel: matching.LabelNotSuitable,
		},
		{
			name:      "unknown label coerces to CONDITIONAL",
			content:   `{"score":60,"label":"MAYBE","version":"v1"}`,
			wantScore: 60,
			wantLabel: matching.LabelConditional,
		},
		{
			name:      "missing version gets the schema default",
			content:   `{"score":75,"label":"SUITABLE"}`,
			wantScore: 75,
			wantLabel: matching.LabelSuitable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClientWithTransport(nil, &fakeTransport{content: tc.content})

			out, err := c.Score(context.Background(), testProfile(), testPet(), testConfig())
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if out.Score != tc.wantScore || out.Label != tc.wantLabel {
				t.Fatalf("got %d/%s, want %d/%s", out.Score, out.Label, tc.wantScore, tc.wantLabel)
			}
			if out.Version != matching.SchemaVersion {
				t.Fatalf("expected version %s, got %q", matching.SchemaVersion, out.Version)
			}
		})
	}
}

func TestScore_UpstreamErrorIsSanitized(t *testing.T) {
	tr := &fakeTransport{
		status:  http.StatusUnauthorized,
		rawBody: `{"error":{"message":"bad key sk-test-credential"}}`,
	}
	c := NewClientWithTransport(nil, tr)

	_, err := c.Score(context.Background(), testProfile(), testPet(), testConfig())
	if !errors.Is(err, ErrScoringUpstream) {
		t.Fatalf("expected ErrScoringUpstream, got %v", err)
	}
	// el error que sube no arrastra el body upstream (puede ecoar la credencial)
	if strings.Contains(err.Error(), "sk-test-credential") {
		t.Fatalf("upstream error leaked the credential: %v", err)
	}
	if !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("expected status-only detail, got %v", err)
	}
}

func TestScore_MalformedOutput(t *testing.T) {
	cases := []struct {
		name    string
		content string
		rawBody string
	}{
		{name: "empty choices", rawBody: `{"choices":[]}`},
		{name: "blank content", content: "   "},
		{name: "content is not json", content: "lo siento, no puedo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClientWithTransport(nil, &fakeTransport{content: tc.content, rawBody: tc.rawBody})

			_, err := c.Score(context.Background(), testProfile(), testPet(), testConfig())
			if !errors.Is(err, ErrBadOutput) {
				t.Fatalf("expected ErrBadOutput, got %v", err)
			}
		})
	}
}

func TestScore_MissingCredential(t *testing.T) {
	tr := &fakeTransport{content: `{"score":80,"label":"SUITABLE","version":"v1"}`}
	c := NewClientWithTransport(nil, tr)

	cfg := testConfig()
	cfg.APIKey = ""

	_, err := c.Score(context.Background(), testProfile(), testPet(), cfg)
	if !errors.Is(err, ErrScoringUpstream) {
		t.Fatalf("expected ErrScoringUpstream, got %v", err)
	}
	if tr.calls != 0 {
		t.Fatalf("must not call upstream without a credential")
	}
}

func TestScore_TruncatesFreeText(t *testing.T) {
	tr := &fakeTransport{content: `{"score":70,"label":"SUITABLE","version":"v1"}`}
	c := NewClientWithTransport(nil, tr)

	profile := testProfile()
	profile.Interests = strings.Repeat("x", maxInterestsChars+500)
	pet := testPet()
	pet.Description = strings.Repeat("y", maxDescriptionChars+500)

	if _, err := c.Score(context.Background(), profile, pet, testConfig()); err != nil {
		t.Fatalf("Score: %v", err)
	}

	var sent chatRequest
	if err := json.Unmarshal(tr.lastBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	var payload struct {
		Adopter adopterPayload `json:"adopter"`
		Pet     petPayload     `json:"pet"`
	}
	if err := json.Unmarshal([]byte(sent.Messages[1].Content), &payload); err != nil {
		t.Fatalf("unmarshal user payload: %v", err)
	}
	if len(payload.Adopter.Interests) != maxInterestsChars {
		t.Fatalf("interests not truncated: %d chars", len(payload.Adopter.Interests))
	}
	if len(payload.Pet.Description) != maxDescriptionChars {
		t.Fatalf("description not truncated: %d chars", len(payload.Pet.Description))
	}
}

func TestProbe_UsesSyntheticPair(t *testing.T) {
	tr := &fakeTransport{content: `{"score":50,"label":"CONDITIONAL","version":"v1"}`}
	c := NewClientWithTransport(nil, tr)

	if err := c.Probe(context.Background(), testConfig()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if tr.calls != 1 {
		t.Fatalf("expected one probe call, got %d", tr.calls)
	}

	tr.status = http.StatusInternalServerError
	tr.rawBody = `{"error":"boom"}`
	if err := c.Probe(context.Background(), testConfig()); err == nil {
		t.Fatalf("expected probe failure on 5xx")
	}
}
