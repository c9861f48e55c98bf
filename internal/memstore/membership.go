package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
)

// PlanStore keeps membership plans in memory
type PlanStore struct{ s *Store }

func (r *PlanStore) Create(ctx context.Context, p *models.MembershipPlan) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.plans[p.ID] = *p
	return nil
}

func (r *PlanStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MembershipPlan, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, notFound("membership plan")
	}
	return &p, nil
}

func (r *PlanStore) List(ctx context.Context, activeOnly bool) ([]models.MembershipPlan, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	plans := []models.MembershipPlan{}
	for _, p := range r.s.plans {
		if !activeOnly || p.IsActive {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Price != plans[j].Price {
			return plans[i].Price < plans[j].Price
		}
		return plans[i].Name < plans[j].Name
	})
	return plans, nil
}

func (r *PlanStore) Update(ctx context.Context, p *models.MembershipPlan) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.plans[p.ID]; !ok {
		return notFound("membership plan")
	}
	r.s.plans[p.ID] = *p
	return nil
}

// SubscriptionStore keeps subscriptions in memory
type SubscriptionStore struct{ s *Store }

func (r *SubscriptionStore) Create(ctx context.Context, sub *models.Subscription) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.plans[sub.PlanID]; !ok {
		return notFound("membership plan")
	}
	r.s.subscriptions[sub.ID] = *sub
	return nil
}

func (r *SubscriptionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return nil, notFound("subscription")
	}
	return &sub, nil
}

func (r *SubscriptionStore) List(ctx context.Context, f models.SubscriptionFilter) ([]models.Subscription, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	subs := []models.Subscription{}
	for _, sub := range r.s.subscriptions {
		if f.UserID == nil || sub.UserID == *f.UserID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

// FirstActive returns the active subscription that ends soonest
func (r *SubscriptionStore) FirstActive(ctx context.Context, userID uuid.UUID, today time.Time) (*models.Subscription, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var first *models.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.UserID != userID || !sub.IsCurrentlyActive(today) {
			continue
		}
		if first == nil || sub.EndDate.Before(first.EndDate.Time) ||
			(sub.EndDate.Equal(first.EndDate.Time) && sub.CreatedAt.Before(first.CreatedAt)) {
			s := sub
			first = &s
		}
	}
	if first == nil {
		return nil, notFound("subscription")
	}
	return first, nil
}

func (r *SubscriptionStore) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subscriptions[id]
	if !ok || !sub.IsActive {
		return false, nil
	}
	sub.IsActive = false
	sub.UpdatedAt = at
	r.s.subscriptions[id] = sub
	return true, nil
}

func (r *SubscriptionStore) ActiveTotals(ctx context.Context, today time.Time) (int, float64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	var revenue float64
	for _, sub := range r.s.subscriptions {
		if sub.IsCurrentlyActive(today) {
			count++
			revenue += r.s.plans[sub.PlanID].Price
		}
	}
	return count, revenue, nil
}
