package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

var phones = validator.NewPhoneValidator()

// ProfileService serves the caller's own profile
type ProfileService struct {
	tx       TxRunner
	users    UserStore
	profiles ProfileStore
	clock    Clock
	logger   *logrus.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(tx TxRunner, users UserStore, profiles ProfileStore, clock Clock, logger *logrus.Logger) *ProfileService {
	return &ProfileService{tx: tx, users: users, profiles: profiles, clock: clock, logger: logger}
}

// Ensure creates a member profile for a principal that has none and returns
// the principal with the profile attached. It is idempotent.
func (s *ProfileService) Ensure(ctx context.Context, p policy.Principal) (policy.Principal, *models.Profile, error) {
	if !p.Authenticated() {
		return p, nil, apperr.ErrUnauthenticated
	}

	profile, err := s.profiles.EnsureDefault(ctx, models.DefaultProfile(p.UserID, s.clock.Now()))
	if err != nil {
		return p, nil, err
	}

	if !p.HasProfile {
		s.logger.WithFields(logrus.Fields{
			"user_id":  p.UserID,
			"username": p.Username,
		}).Info("Created default member profile")
	}

	p.HasProfile = true
	p.Role = profile.Role
	p.Suspended = profile.AccountStatus == models.AccountStatusSuspended
	return p, profile, nil
}

// Get returns the caller's user and profile
func (s *ProfileService) Get(ctx context.Context, p policy.Principal) (*models.UserWithProfile, error) {
	if err := policy.Authorize(p, policy.ViewOwnData); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &models.UserWithProfile{User: *user, Profile: profile}, nil
}

// Update edits the caller's name, email and contact details
func (s *ProfileService) Update(ctx context.Context, p policy.Principal, req models.UpdateProfileRequest) (*models.UserWithProfile, error) {
	if err := policy.Authorize(p, policy.EditOwnProfile); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		profile, err := s.profiles.Get(ctx, p.UserID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if req.FirstName != nil || req.LastName != nil || req.Email != nil {
			if req.FirstName != nil {
				user.FirstName = strings.TrimSpace(*req.FirstName)
			}
			if req.LastName != nil {
				user.LastName = strings.TrimSpace(*req.LastName)
			}
			if req.Email != nil {
				user.Email = strings.TrimSpace(*req.Email)
			}
			user.UpdatedAt = now
			if err := s.users.Update(ctx, user); err != nil {
				return err
			}
		}

		if req.PhoneNumber != nil {
			phone, err := phones.Validate(*req.PhoneNumber)
			if err != nil {
				return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
			}
			profile.PhoneNumber = phone
		}
		if req.Address != nil {
			profile.Address = *req.Address
		}
		if req.CompanyName != nil {
			profile.CompanyName = strings.TrimSpace(*req.CompanyName)
		}
		if req.ProfilePictureURL != nil {
			profile.ProfilePictureURL = strings.TrimSpace(*req.ProfilePictureURL)
		}
		profile.UpdatedAt = now
		return s.profiles.UpdateContact(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, p)
}
