package requests

import "time"

// Status del ciclo de vida de una solicitud de adopción.
// @Enum new, under_review, interview_scheduled, approved, rejected, cancelled
type Status string

const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under_review"
	StatusInterview   Status = "interview_scheduled"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal: approved/rejected/cancelled no admiten más transiciones.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// IsValid valida que el status pertenezca al enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusInterview, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Request es una solicitud de adopción. Los datos de adopter y mascota son
// snapshots al momento de aplicar, igual que el score de compatibilidad
// (copiado del ScoreRecord, no vinculado en vivo). Nunca se hard-deletea:
// cancelar es un estado terminal, no un borrado.
type Request struct {
	ID string

	PetID     string
	PetName   string // snapshot
	ShelterID string

	AdopterID      string
	AdopterName    string // snapshot
	AdopterContact string // snapshot

	Status Status

	// Score de compatibilidad copiado al aplicar; nil si no había score.
	CompatScore   *int
	CompatLabel   string
	CompatReasons []string

	Message string

	Escalated   bool
	EscalatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active: cuenta contra el guard de "una solicitud activa por (adopter, pet)".
// Rejected y cancelled liberan el cupo; approved lo mantiene ocupado.
func (r Request) Active() bool {
	return r.Status != StatusRejected && r.Status != StatusCancelled
}
