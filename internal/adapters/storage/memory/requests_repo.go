package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-adoption-match/internal/domain/requests"
)

type requestsRepo struct {
	mu   sync.Mutex
	byID map[string]requests.Request
}

func NewRequestsRepo() requests.Repository {
	return &requestsRepo{
		byID: make(map[string]requests.Request),
	}
}

func (r *requestsRepo) Create(ctx context.Context, req requests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; exists {
		return errors.New("request already exists")
	}
	r.byID[req.ID] = req
	return nil
}

func (r *requestsRepo) Update(ctx context.Context, req requests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; !exists {
		return ErrNotFound
	}
	r.byID[req.ID] = req
	return nil
}

func (r *requestsRepo) GetByID(ctx context.Context, id string) (requests.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return requests.Request{}, ErrNotFound
	}
	return req, nil
}

func (r *requestsRepo) ListByPet(ctx context.Context, petID string) ([]requests.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]requests.Request, 0)
	for _, req := range r.byID {
		if req.PetID == petID {
			out = append(out, req)
		}
	}
	sortRequests(out)
	return out, nil
}

func (r *requestsRepo) ListByAdopter(ctx context.Context, adopterID string) ([]requests.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]requests.Request, 0)
	for _, req := range r.byID {
		if req.AdopterID == adopterID {
			out = append(out, req)
		}
	}
	sortRequests(out)
	return out, nil
}

// TryApprove hace el check y el set bajo el mismo lock: dos aprobaciones
// concurrentes sobre la misma mascota no pueden ganar las dos.
func (r *requestsRepo) TryApprove(ctx context.Context, petID, requestID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.byID[requestID]
	if !ok || target.PetID != petID {
		return ErrNotFound
	}
	if target.Status.IsTerminal() {
		return ErrNotFound
	}

	for _, other := range r.byID {
		if other.PetID == petID && other.ID != requestID && other.Status == requests.StatusApproved {
			return requests.ErrApprovedConflict
		}
	}

	target.Status = requests.StatusApproved
	target.UpdatedAt = now
	r.byID[requestID] = target
	return nil
}

func sortRequests(items []requests.Request) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
