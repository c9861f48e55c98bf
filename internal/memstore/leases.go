package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
)

// LeaseStore keeps lease contracts in memory
type LeaseStore struct{ s *Store }

func (r *LeaseStore) Create(ctx context.Context, l *models.LeaseContract) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resources[l.ResourceID]; !ok {
		return notFound("resource")
	}
	r.s.leases[l.ID] = *l
	return nil
}

func (r *LeaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.LeaseContract, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leases[id]
	if !ok {
		return nil, notFound("lease")
	}
	return &l, nil
}

func (r *LeaseStore) List(ctx context.Context, f models.LeaseFilter) ([]models.LeaseContract, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	leases := []models.LeaseContract{}
	for _, l := range r.s.leases {
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if len(f.Statuses) > 0 && !containsLeaseStatus(f.Statuses, l.Status) {
			continue
		}
		leases = append(leases, l)
	}
	sort.Slice(leases, func(i, j int) bool { return leases[i].CreatedAt.After(leases[j].CreatedAt) })
	return leases, nil
}

func (r *LeaseStore) FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.LeaseStatus, exclude uuid.UUID) ([]models.LeaseContract, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	overlapping := []models.LeaseContract{}
	for _, l := range r.s.leases {
		if l.ResourceID != resourceID || l.Status != status || l.ID == exclude {
			continue
		}
		if conflict.Overlaps(iv, l.Interval()) {
			overlapping = append(overlapping, l)
		}
	}
	sort.Slice(overlapping, func(i, j int) bool { return overlapping[i].StartDate.Before(overlapping[j].StartDate.Time) })
	return overlapping, nil
}

func (r *LeaseStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.LeaseStatus, actor uuid.UUID, at time.Time) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.leases[id]
	if !ok || l.Status != from {
		return false, nil
	}
	l.Status = to
	l.DecidedBy = &actor
	l.DecidedAt = &at
	l.UpdatedAt = at
	r.s.leases[id] = l
	return true, nil
}

func (r *LeaseStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, l := range r.s.leases {
		counts[string(l.Status)]++
	}
	return statusCounts(counts), nil
}

func (r *LeaseStore) ActiveTotals(ctx context.Context) (float64, float64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rent, deposits float64
	for _, l := range r.s.leases {
		if l.Status == models.LeaseStatusActive {
			rent += l.MonthlyRent
			deposits += l.DepositAmount
		}
	}
	return rent, deposits, nil
}

func containsLeaseStatus(set []models.LeaseStatus, status models.LeaseStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
