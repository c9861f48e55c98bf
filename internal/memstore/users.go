package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
)

// UserStore keeps users in memory
type UserStore struct{ s *Store }

func (r *UserStore) Create(ctx context.Context, u *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: %s", apperr.ErrUsernameTaken, u.Username)
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r *UserStore) List(ctx context.Context) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *UserStore) Update(ctx context.Context, u *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return notFound("user")
	}
	existing.Email = u.Email
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.UpdatedAt = u.UpdatedAt
	r.s.users[u.ID] = existing
	return nil
}

func (r *UserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return notFound("user")
	}
	u.LastLoginAt = &at
	r.s.users[id] = u
	return nil
}

// ProfileStore keeps profiles in memory
type ProfileStore struct{ s *Store }

func (r *ProfileStore) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, notFound("profile")
	}
	return &p, nil
}

func (r *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[p.UserID]; ok {
		return fmt.Errorf("%w: profile already exists", apperr.ErrConflict)
	}
	r.s.profiles[p.UserID] = *p
	return nil
}

func (r *ProfileStore) EnsureDefault(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.profiles[p.UserID]; ok {
		return &existing, nil
	}
	r.s.profiles[p.UserID] = *p
	created := *p
	return &created, nil
}

func (r *ProfileStore) UpdateContact(ctx context.Context, p *models.Profile) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[p.UserID]
	if !ok {
		return notFound("profile")
	}
	existing.PhoneNumber = p.PhoneNumber
	existing.Address = p.Address
	existing.CompanyName = p.CompanyName
	existing.ProfilePictureURL = p.ProfilePictureURL
	existing.UpdatedAt = p.UpdatedAt
	r.s.profiles[p.UserID] = existing
	return nil
}

func (r *ProfileStore) SetRole(ctx context.Context, userID uuid.UUID, role policy.Role, at time.Time) error {
	return r.mutate(ctx, userID, func(p *models.Profile) {
		p.Role = role
		p.UpdatedAt = at
	})
}

func (r *ProfileStore) SetStatus(ctx context.Context, userID uuid.UUID, status models.AccountStatus, at time.Time) error {
	return r.mutate(ctx, userID, func(p *models.Profile) {
		p.AccountStatus = status
		p.UpdatedAt = at
	})
}

func (r *ProfileStore) mutate(ctx context.Context, userID uuid.UUID, fn func(p *models.Profile)) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return notFound("profile")
	}
	fn(&p)
	r.s.profiles[userID] = p
	return nil
}

func (r *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profiles := make([]models.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CreatedAt.Before(profiles[j].CreatedAt) })
	return profiles, nil
}
