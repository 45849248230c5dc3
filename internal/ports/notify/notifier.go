package notify

import (
	"context"
	"time"
)

// Event es el evento de auditoría que emite el core hacia la capa de
// notificaciones/broadcast. Nunca incluye la credencial del servicio
// de scoring, solo metadata operacional.
type Event struct {
	Type    string // p.ej. "settings_updated", "scoring_attempted"
	Outcome string // "ok", "failed", "throttled"
	Actor   string // user id del actor; vacío para procesos anónimos
	Latency time.Duration
}

// Notifier es el contrato fire-and-forget hacia la capa de tiempo real.
// Las implementaciones no deben bloquear ni devolver error: un fallo de
// notificación jamás corta una transición de solicitud.
type Notifier interface {
	// RequestsChanged avisa que el set de solicitudes de adopción cambió
	// (creación, transición, cascada) para que la UI refresque.
	RequestsChanged(ctx context.Context)

	// Audit registra un evento operacional (settings, scoring).
	Audit(ctx context.Context, ev Event)
}
