package ratelimit

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// PerActor es un token bucket por actor (admin, shelter user, etc).
// Se inyecta como dependencia en los services que lo necesiten en vez de
// mantener estado mutable global en los handlers.
type PerActor struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	limit rate.Limit
	burst int
}

func NewPerActor(limit rate.Limit, burst int) *PerActor {
	if burst <= 0 {
		burst = 1
	}
	return &PerActor{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Allow consume un token del bucket del actor. Actor vacío comparte un bucket
// único "anonymous" para no dejar pasar llamadas sin identidad sin control.
func (p *PerActor) Allow(actorID string) bool {
	if p == nil {
		return true // sin limiter inyectado = sin throttle (modo dev/tests)
	}

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = "anonymous"
	}

	p.mu.Lock()
	l, ok := p.limiters[actorID]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[actorID] = l
	}
	p.mu.Unlock()

	return l.Allow()
}
