package memstore

import (
	"context"
	"sort"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
)

// ResourceStore keeps the inventory in memory
type ResourceStore struct{ s *Store }

func (r *ResourceStore) Create(ctx context.Context, res *models.Resource) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resources[res.ID] = *res
	return nil
}

func (r *ResourceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.resources[id]
	if !ok {
		return nil, notFound("resource")
	}
	return &res, nil
}

func (r *ResourceStore) List(ctx context.Context, resourceType *models.ResourceType) ([]models.Resource, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	resources := []models.Resource{}
	for _, res := range r.s.resources {
		if resourceType == nil || res.Type == *resourceType {
			resources = append(resources, res)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })
	return resources, nil
}

func (r *ResourceStore) Update(ctx context.Context, res *models.Resource) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.resources[res.ID]
	if !ok {
		return notFound("resource")
	}
	updated := *res
	updated.CreatedAt = existing.CreatedAt
	r.s.resources[res.ID] = updated
	return nil
}

// LockForUpdate only checks existence; RunInTx already serializes writers.
func (r *ResourceStore) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	_, err := r.GetByID(ctx, id)
	return err
}

func (r *ResourceStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, res := range r.s.resources {
		counts[string(res.Status)]++
	}
	return statusCounts(counts), nil
}

func statusCounts(counts map[string]int) []models.StatusCount {
	out := make([]models.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}
