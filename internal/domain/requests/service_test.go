package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption-match/internal/ports/auth"
	"pet-adoption-match/internal/ports/notify"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID  map[string]Request
	order []string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Request{}}
}

func (r *testRepo) Create(ctx context.Context, req Request) error {
	if req.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[req.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[req.ID] = req
	r.order = append(r.order, req.ID)
	return nil
}

func (r *testRepo) Update(ctx context.Context, req Request) error {
	if _, ok := r.byID[req.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Request, error) {
	req, ok := r.byID[id]
	if !ok {
		return Request{}, errRepoNotFound
	}
	return req, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]Request, error) {
	out := make([]Request, 0)
	for _, id := range r.order {
		if req := r.byID[id]; req.PetID == petID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *testRepo) ListByAdopter(ctx context.Context, adopterID string) ([]Request, error) {
	out := make([]Request, 0)
	for _, id := range r.order {
		if req := r.byID[id]; req.AdopterID == adopterID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *testRepo) TryApprove(ctx context.Context, petID, requestID string, now time.Time) error {
	target, ok := r.byID[requestID]
	if !ok || target.PetID != petID || target.Status.IsTerminal() {
		return ErrNotFound
	}
	for _, other := range r.byID {
		if other.PetID == petID && other.ID != requestID && other.Status == StatusApproved {
			return ErrApprovedConflict
		}
	}
	target.Status = StatusApproved
	target.UpdatedAt = now
	r.byID[requestID] = target
	return nil
}

type testNotifier struct {
	changed int
	audits  []notify.Event
}

func (n *testNotifier) RequestsChanged(ctx context.Context) { n.changed++ }

func (n *testNotifier) Audit(ctx context.Context, e notify.Event) {
	n.audits = append(n.audits, e)
}

type testPetsDir struct {
	known map[string]PetSnapshot
}

func (d *testPetsDir) Snapshot(ctx context.Context, petID string) (PetSnapshot, error) {
	snap, ok := d.known[petID]
	if !ok {
		return PetSnapshot{}, errRepoNotFound
	}
	return snap, nil
}

func newTestService(repo *testRepo) (*Service, *testNotifier) {
	notifier := &testNotifier{}
	dir := &testPetsDir{known: map[string]PetSnapshot{
		"pet-1": {Name: "Roco", ShelterID: "shelter-1"},
		"pet-2": {Name: "Mila", ShelterID: "shelter-1"},
	}}
	svc := NewService(repo, notifier, dir)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, notifier
}

var (
	adopter1 = Actor{UserID: "adopter-1", Role: auth.RoleAdopter}
	adopter2 = Actor{UserID: "adopter-2", Role: auth.RoleAdopter}
	shelter  = Actor{UserID: "shelter-1", Role: auth.RoleShelter}
	admin    = Actor{UserID: "admin-1", Role: auth.RoleAdmin}
)

func mustCreate(t *testing.T, svc *Service, petID, adopterID string) Request {
	t.Helper()
	r, err := svc.Create(context.Background(), CreateInput{
		PetID:          petID,
		AdopterID:      adopterID,
		AdopterName:    "Test Adopter",
		AdopterContact: adopterID + "@example.com",
	})
	if err != nil {
		t.Fatalf("Create(%s, %s): %v", petID, adopterID, err)
	}
	return r
}

// -------------------------
// Create
// -------------------------

func TestCreate_SnapshotsPetFromDirectory(t *testing.T) {
	svc, notifier := newTestService(newTestRepo())

	r, err := svc.Create(context.Background(), CreateInput{
		PetID:     "pet-1",
		PetName:   "nombre trucho del payload",
		ShelterID: "shelter trucho",
		AdopterID: "adopter-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// el snapshot sale del directorio, no del payload
	if r.PetName != "Roco" || r.ShelterID != "shelter-1" {
		t.Fatalf("expected authoritative pet snapshot, got %q/%q", r.PetName, r.ShelterID)
	}
	if r.Status != StatusNew {
		t.Fatalf("expected status new, got %s", r.Status)
	}
	if notifier.changed != 1 {
		t.Fatalf("expected 1 change broadcast, got %d", notifier.changed)
	}
}

func TestCreate_UnknownPetRejected(t *testing.T) {
	svc, _ := newTestService(newTestRepo())

	_, err := svc.Create(context.Background(), CreateInput{PetID: "pet-nope", AdopterID: "adopter-1"})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_DuplicateActiveRequestRejected(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	mustCreate(t, svc, "pet-1", "adopter-1")

	_, err := svc.Create(context.Background(), CreateInput{PetID: "pet-1", AdopterID: "adopter-1"})
	if err != ErrDuplicateRequest {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	// otra mascota sí se puede
	mustCreate(t, svc, "pet-2", "adopter-1")
}

func TestCreate_AllowedAgainAfterCancellation(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	r := mustCreate(t, svc, "pet-1", "adopter-1")
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusCancelled, adopter1); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// la solicitud cancelada ya no bloquea una nueva
	mustCreate(t, svc, "pet-1", "adopter-1")
}

// -------------------------
// Transitions
// -------------------------

func TestSetStatus_TransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		wantErr error
	}{
		{"new to under_review", StatusNew, StatusUnderReview, nil},
		{"new to interview", StatusNew, StatusInterview, nil},
		{"under_review to interview", StatusUnderReview, StatusInterview, nil},
		{"interview back to under_review", StatusInterview, StatusUnderReview, nil},
		{"under_review to rejected", StatusUnderReview, StatusRejected, nil},
		{"same status is a no-op error", StatusUnderReview, StatusUnderReview, ErrBadState},
		{"rejected is terminal", StatusRejected, StatusUnderReview, ErrBadState},
		{"cancelled is terminal", StatusCancelled, StatusUnderReview, ErrBadState},
		{"approved is terminal", StatusApproved, StatusRejected, ErrBadState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newTestRepo()
			svc, _ := newTestService(repo)

			r := mustCreate(t, svc, "pet-1", "adopter-1")
			r.Status = tc.from
			if err := repo.Update(context.Background(), r); err != nil {
				t.Fatalf("seed status: %v", err)
			}

			_, err := svc.SetStatus(context.Background(), r.ID, tc.to, shelter)
			if err != tc.wantErr {
				t.Fatalf("SetStatus(%s -> %s) = %v, want %v", tc.from, tc.to, err, tc.wantErr)
			}
		})
	}
}

func TestSetStatus_RoleRules(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	r := mustCreate(t, svc, "pet-1", "adopter-1")

	// un adopter no mueve estados de revisión
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusUnderReview, adopter1); err != ErrForbidden {
		t.Fatalf("adopter moving to under_review should be ErrForbidden, got %v", err)
	}

	// cancelar: solo el adopter dueño (o admin)
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusCancelled, adopter2); err != ErrForbidden {
		t.Fatalf("non-owner cancelling should be ErrForbidden, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusCancelled, shelter); err != ErrForbidden {
		t.Fatalf("shelter cancelling should be ErrForbidden, got %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), r.ID, StatusCancelled, adopter1)
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
}

func TestSetStatus_AdminCanCancelOnBehalf(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	r := mustCreate(t, svc, "pet-1", "adopter-1")
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusCancelled, admin); err != nil {
		t.Fatalf("admin cancel on behalf: %v", err)
	}
}

// -------------------------
// Approval invariant
// -------------------------

func TestApprove_CascadeRejectsCompetingRequests(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	winner := mustCreate(t, svc, "pet-1", "adopter-1")
	loser := mustCreate(t, svc, "pet-1", "adopter-2")
	unrelated := mustCreate(t, svc, "pet-2", "adopter-2")

	approved, err := svc.SetStatus(context.Background(), winner.ID, StatusApproved, shelter)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	got, _ := repo.GetByID(context.Background(), loser.ID)
	if got.Status != StatusRejected {
		t.Fatalf("competing request should cascade to rejected, got %s", got.Status)
	}

	// la cascada es por mascota: solicitudes de otras mascotas no se tocan
	got, _ = repo.GetByID(context.Background(), unrelated.ID)
	if got.Status != StatusNew {
		t.Fatalf("unrelated pet request must remain untouched, got %s", got.Status)
	}
}

func TestApprove_SecondApprovalConflicts(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	first := mustCreate(t, svc, "pet-1", "adopter-1")
	second := mustCreate(t, svc, "pet-1", "adopter-2")

	if _, err := svc.SetStatus(context.Background(), first.ID, StatusApproved, shelter); err != nil {
		t.Fatalf("approve #1: %v", err)
	}

	// la cascada ya rechazó a second, pero forzamos el escenario de carrera:
	// second vuelve a un estado no terminal y alguien intenta aprobarla
	r, _ := repo.GetByID(context.Background(), second.ID)
	r.Status = StatusUnderReview
	_ = repo.Update(context.Background(), r)

	_, err := svc.SetStatus(context.Background(), second.ID, StatusApproved, shelter)
	if err != ErrApprovedConflict {
		t.Fatalf("expected ErrApprovedConflict, got %v", err)
	}

	// el perdedor no cambió de estado
	got, _ := repo.GetByID(context.Background(), second.ID)
	if got.Status != StatusUnderReview {
		t.Fatalf("failed approval must not mutate state, got %s", got.Status)
	}
}

func TestApprove_ExactlyOneApprovedPerPet(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	mustCreate(t, svc, "pet-1", "adopter-1")
	winner := mustCreate(t, svc, "pet-1", "adopter-2")
	mustCreate(t, svc, "pet-1", "adopter-3")

	if _, err := svc.SetStatus(context.Background(), winner.ID, StatusApproved, admin); err != nil {
		t.Fatalf("approve: %v", err)
	}

	all, _ := repo.ListByPet(context.Background(), "pet-1")
	var approved int
	for _, r := range all {
		if r.Status == StatusApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Fatalf("expected exactly one approved request, got %d", approved)
	}
}

func TestApprove_RepeatedApprovalIsNoOpError(t *testing.T) {
	repo := newTestRepo()
	svc, notifier := newTestService(repo)

	r := mustCreate(t, svc, "pet-1", "adopter-1")
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusApproved, shelter); err != nil {
		t.Fatalf("approve: %v", err)
	}
	broadcasts := notifier.changed

	// entrega duplicada del mismo target: error, sin segunda cascada
	if _, err := svc.SetStatus(context.Background(), r.ID, StatusApproved, shelter); err != ErrBadState {
		t.Fatalf("expected ErrBadState on duplicate approve, got %v", err)
	}
	if notifier.changed != broadcasts {
		t.Fatalf("duplicate approve must not broadcast again")
	}
}

// -------------------------
// Escalation
// -------------------------

func TestEscalate_SetsFlagOnce(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)

	r := mustCreate(t, svc, "pet-1", "adopter-1")

	if _, err := svc.Escalate(context.Background(), r.ID, adopter1); err != ErrForbidden {
		t.Fatalf("adopter escalating should be ErrForbidden, got %v", err)
	}

	first, err := svc.Escalate(context.Background(), r.ID, shelter)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if !first.Escalated || first.EscalatedAt == nil {
		t.Fatalf("expected escalation flag + timestamp, got %+v", first)
	}

	// idempotente: repetir no cambia el timestamp
	second, err := svc.Escalate(context.Background(), r.ID, shelter)
	if err != nil {
		t.Fatalf("escalate #2: %v", err)
	}
	if !second.EscalatedAt.Equal(*first.EscalatedAt) {
		t.Fatalf("repeated escalation must not move the timestamp")
	}
}
