package lognotify

import (
	"context"

	"pet-adoption-match/internal/platform/logger"
	"pet-adoption-match/internal/ports/notify"
)

// Notifier implementa notify.Notifier sobre el logger estructurado.
// Sirve como sink por defecto hasta que se conecte el transporte real de
// tiempo real (websockets/SSE los maneja otro equipo).
type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Notifier{log: log.With(map[string]any{"component": "notify"})}
}

func (n *Notifier) RequestsChanged(ctx context.Context) {
	n.log.Info("adoption requests changed", nil)
}

func (n *Notifier) Audit(ctx context.Context, ev notify.Event) {
	n.log.Info("audit event", map[string]any{
		"type":       ev.Type,
		"outcome":    ev.Outcome,
		"actor":      ev.Actor,
		"latency_ms": ev.Latency.Milliseconds(),
	})
}
