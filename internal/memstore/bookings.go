package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/google/uuid"
)

// BookingStore keeps bookings in memory
type BookingStore struct{ s *Store }

func (r *BookingStore) Create(ctx context.Context, b *models.Booking) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resources[b.ResourceID]; !ok {
		return notFound("resource")
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *BookingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return &b, nil
}

// List returns matching bookings, newest first
func (r *BookingStore) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bookings := []models.Booking{}
	for _, b := range r.s.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.ResourceID != nil && b.ResourceID != *f.ResourceID {
			continue
		}
		if len(f.Statuses) > 0 && !containsBookingStatus(f.Statuses, b.Status) {
			continue
		}
		bookings = append(bookings, b)
	}

	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		return bookings[i].ID.String() < bookings[j].ID.String()
	})
	if f.Limit > 0 && len(bookings) > f.Limit {
		bookings = bookings[:f.Limit]
	}
	return bookings, nil
}

func (r *BookingStore) FindOverlapping(ctx context.Context, resourceID uuid.UUID, iv conflict.Interval, status models.BookingStatus, exclude uuid.UUID) ([]models.Booking, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	overlapping := []models.Booking{}
	for _, b := range r.s.bookings {
		if b.ResourceID != resourceID || b.Status != status || b.ID == exclude {
			continue
		}
		if conflict.Overlaps(iv, b.Interval()) {
			overlapping = append(overlapping, b)
		}
	}
	sort.Slice(overlapping, func(i, j int) bool { return overlapping[i].StartTime.Before(overlapping[j].StartTime) })
	return overlapping, nil
}

func (r *BookingStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus, actor uuid.UUID, at time.Time) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || !containsBookingStatus(from, b.Status) {
		return false, nil
	}
	b.Status = to
	b.DecidedBy = &actor
	b.DecidedAt = &at
	b.UpdatedAt = at
	r.s.bookings[id] = b
	return true, nil
}

func (r *BookingStore) Upcoming(ctx context.Context, resourceID uuid.UUID, from time.Time, limit int) ([]models.Booking, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	upcoming := []models.Booking{}
	for _, b := range r.s.bookings {
		if b.ResourceID == resourceID && b.Status == models.BookingStatusApproved && !b.StartTime.Before(from) {
			upcoming = append(upcoming, b)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].StartTime.Before(upcoming[j].StartTime) })
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

func (r *BookingStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, b := range r.s.bookings {
		counts[string(b.Status)]++
	}
	return statusCounts(counts), nil
}

func (r *BookingStore) ApprovedTotals(ctx context.Context) (float64, float64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var hours, revenue float64
	for _, b := range r.s.bookings {
		if b.Status != models.BookingStatusApproved {
			continue
		}
		h := b.Hours()
		hours += h
		revenue += h * r.s.resources[b.ResourceID].PricePerHour
	}
	return hours, revenue, nil
}

func containsBookingStatus(set []models.BookingStatus, status models.BookingStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
