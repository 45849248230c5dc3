package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-match/internal/ports/auth"
	"pet-adoption-match/internal/ports/notify"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrBadState         = errors.New("invalid state transition")
	ErrDuplicateRequest = errors.New("adopter already has an active request for this pet")

	// ErrApprovedConflict es el error tipado del invariante de aprobación.
	// El mensaje es accionable para la UI, no un fallo genérico.
	ErrApprovedConflict = errors.New("this pet already has an approved adopter")
)

// Actor identifica quién ejecuta una transición.
type Actor struct {
	UserID string
	Role   auth.Role
}

// allowedTransitions codifica el grafo de estados:
// new → cualquiera; under_review ↔ interview_scheduled, ambos → approved/rejected.
// Los terminales no aparecen como origen. cancelled solo lo ejecuta el
// adopter dueño (validado aparte en SetStatus).
var allowedTransitions = map[Status][]Status{
	StatusNew:         {StatusUnderReview, StatusInterview, StatusApproved, StatusRejected, StatusCancelled},
	StatusUnderReview: {StatusInterview, StatusApproved, StatusRejected, StatusCancelled},
	StatusInterview:   {StatusUnderReview, StatusApproved, StatusRejected, StatusCancelled},
}

func transitionAllowed(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PetSnapshot es la ficha mínima que se copia en la solicitud al crearla.
type PetSnapshot struct {
	Name      string
	ShelterID string
}

// PetDirectory resuelve la ficha autoritativa de una mascota. El snapshot
// de nombre/refugio sale de acá, no del payload del cliente.
type PetDirectory interface {
	Snapshot(ctx context.Context, petID string) (PetSnapshot, error)
}

type Service struct {
	repo     Repository
	notifier notify.Notifier
	petsDir  PetDirectory // opcional; nil = sin enriquecimiento
	now      func() time.Time
}

func NewService(repo Repository, notifier notify.Notifier, petsDir PetDirectory) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		petsDir:  petsDir,
		now:      time.Now,
	}
}

type CreateInput struct {
	PetID     string
	PetName   string
	ShelterID string

	AdopterID      string
	AdopterName    string
	AdopterContact string

	CompatScore   *int
	CompatLabel   string
	CompatReasons []string

	Message string
}

// Create registra una solicitud nueva. Guard de duplicados: un adopter no
// puede tener dos solicitudes activas (no rechazadas ni canceladas) para
// la misma mascota.
func (s *Service) Create(ctx context.Context, in CreateInput) (Request, error) {
	petID := strings.TrimSpace(in.PetID)
	adopterID := strings.TrimSpace(in.AdopterID)
	if petID == "" || adopterID == "" {
		return Request{}, ErrInvalidInput
	}

	petName := strings.TrimSpace(in.PetName)
	shelterID := strings.TrimSpace(in.ShelterID)
	if s.petsDir != nil {
		snap, err := s.petsDir.Snapshot(ctx, petID)
		if err != nil {
			return Request{}, ErrNotFound
		}
		petName = snap.Name
		shelterID = snap.ShelterID
	}

	existing, err := s.repo.ListByAdopter(ctx, adopterID)
	if err != nil {
		return Request{}, err
	}
	for _, r := range existing {
		if r.PetID == petID && r.Active() {
			return Request{}, ErrDuplicateRequest
		}
	}

	now := s.now()
	r := Request{
		ID: uuid.NewString(),

		PetID:     petID,
		PetName:   petName,
		ShelterID: shelterID,

		AdopterID:      adopterID,
		AdopterName:    strings.TrimSpace(in.AdopterName),
		AdopterContact: strings.TrimSpace(in.AdopterContact),

		Status: StatusNew,

		CompatScore:   in.CompatScore,
		CompatLabel:   strings.TrimSpace(in.CompatLabel),
		CompatReasons: in.CompatReasons,

		Message: strings.TrimSpace(in.Message),

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Request{}, err
	}

	s.requestsChanged(ctx)
	return r, nil
}

// SetStatus transiciona una solicitud. Reglas:
// - repetir el status actual es ErrBadState (no-op error: sin doble cascada)
// - estados terminales no transicionan
// - cancelled: solo el adopter dueño, desde cualquier estado no terminal
// - approved: write condicional atómico + cascada de rechazo al resto
func (s *Service) SetStatus(ctx context.Context, requestID string, newStatus Status, actor Actor) (Request, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || !newStatus.IsValid() || newStatus == StatusNew {
		return Request{}, ErrInvalidInput
	}

	r, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, ErrNotFound
	}

	if newStatus == r.Status {
		return Request{}, ErrBadState
	}
	if r.Status.IsTerminal() || !transitionAllowed(r.Status, newStatus) {
		return Request{}, ErrBadState
	}

	if newStatus == StatusCancelled {
		// Cancelación la inicia el adopter dueño; admin puede en su nombre.
		if actor.Role != auth.RoleAdmin && (actor.Role != auth.RoleAdopter || actor.UserID != r.AdopterID) {
			return Request{}, ErrForbidden
		}
	} else {
		if actor.Role != auth.RoleShelter && actor.Role != auth.RoleAdmin {
			return Request{}, ErrForbidden
		}
	}

	if newStatus == StatusApproved {
		return s.approve(ctx, r)
	}

	r.Status = newStatus
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Request{}, err
	}

	s.requestsChanged(ctx)
	return r, nil
}

// approve ejecuta el camino de aprobación: el repo hace el test-and-set del
// slot de aprobado de la mascota en una sola operación, y recién después
// corre la cascada de rechazo sobre las solicitudes competidoras.
func (s *Service) approve(ctx context.Context, r Request) (Request, error) {
	now := s.now()

	if err := s.repo.TryApprove(ctx, r.PetID, r.ID, now); err != nil {
		// sin cambio de estado parcial: o ganó entera, o no pasó nada
		return Request{}, err
	}

	approved, err := s.repo.GetByID(ctx, r.ID)
	if err != nil {
		return Request{}, err
	}

	// Cascada: toda otra solicitud no terminal de la misma mascota pasa a
	// rejected. Best-effort por solicitud; un fallo puntual no revierte la
	// aprobación ya ganada.
	siblings, err := s.repo.ListByPet(ctx, r.PetID)
	if err == nil {
		for _, other := range siblings {
			if other.ID == approved.ID || other.Status.IsTerminal() {
				continue
			}
			other.Status = StatusRejected
			other.UpdatedAt = now
			_ = s.repo.Update(ctx, other)
		}
	}

	s.requestsChanged(ctx)
	return approved, nil
}

// Escalate marca la solicitud para revisión prioritaria. Idempotente.
func (s *Service) Escalate(ctx context.Context, requestID string, actor Actor) (Request, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Request{}, ErrInvalidInput
	}

	r, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, ErrNotFound
	}
	if actor.Role != auth.RoleShelter && actor.Role != auth.RoleAdmin {
		return Request{}, ErrForbidden
	}

	if r.Escalated {
		return r, nil
	}

	now := s.now()
	r.Escalated = true
	r.EscalatedAt = &now
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r); err != nil {
		return Request{}, err
	}

	s.requestsChanged(ctx)
	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Request, error) {
	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Request, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListByAdopter(ctx context.Context, adopterID string) ([]Request, error) {
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAdopter(ctx, adopterID)
}

// requestsChanged es fire-and-forget hacia la capa de tiempo real.
func (s *Service) requestsChanged(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	s.notifier.RequestsChanged(ctx)
}
