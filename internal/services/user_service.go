package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService owns accounts, credentials and role assignment
type UserService struct {
	tx         TxRunner
	users      UserStore
	profiles   ProfileStore
	audit      *AuditService
	bcryptCost int
	clock      Clock
	logger     *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(tx TxRunner, users UserStore, profiles ProfileStore, audit *AuditService, bcryptCost int, clock Clock, logger *logrus.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		tx:         tx,
		users:      users,
		profiles:   profiles,
		audit:      audit,
		bcryptCost: bcryptCost,
		clock:      clock,
		logger:     logger,
	}
}

// ProvisionInput describes a user created with an explicit role
type ProvisionInput struct {
	Username  string
	Email     string
	Password  string
	Role      policy.Role
	FirstName string
	LastName  string
	Phone     string
	Company   string
}

// Register creates a self-service account with a member profile
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.Profile, error) {
	return s.Provision(ctx, ProvisionInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      policy.RoleMember,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

// Provision creates a user and its profile in one transaction. It performs no
// authorization and backs the create-user command and ProvisionAs.
func (s *UserService) Provision(ctx context.Context, in ProvisionInput) (*models.User, *models.Profile, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", apperr.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, nil, fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrInvalidInput)
	}
	role, err := policy.ParseRole(string(in.Role))
	if err != nil {
		return nil, nil, err
	}
	phone, err := phones.Validate(in.Phone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := models.DefaultProfile(user.ID, now)
	profile.Role = role
	profile.PhoneNumber = phone
	profile.CompanyName = strings.TrimSpace(in.Company)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     role,
	}).Info("User created")

	return user, profile, nil
}

// ProvisionAs creates a user on behalf of an admin
func (s *UserService) ProvisionAs(ctx context.Context, p policy.Principal, in ProvisionInput) (*models.User, *models.Profile, error) {
	if err := policy.Authorize(p, policy.ManageAllProfiles); err != nil {
		return nil, nil, err
	}
	user, profile, err := s.Provision(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	s.audit.LogChange(ctx, p.UserID, "user_created", "user", &user.ID,
		map[string]interface{}{"username": user.Username, "role": profile.Role})
	return user, profile, nil
}

// Authenticate verifies a username and password. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// Principal loads the authorization subject for an authenticated user id.
// A missing profile yields a principal without a role.
func (s *UserService) Principal(ctx context.Context, userID uuid.UUID) (policy.Principal, *models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return policy.Principal{}, nil, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthenticated)
		}
		return policy.Principal{}, nil, err
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return policy.Principal{}, nil, err
		}
		profile = nil
	}
	return models.NewPrincipal(user, profile), user, nil
}

// List returns every user with its profile
func (s *UserService) List(ctx context.Context, p policy.Principal) ([]models.UserWithProfile, error) {
	if err := policy.Authorize(p, policy.ViewAllProfiles); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]*models.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := make([]models.UserWithProfile, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserWithProfile{User: u, Profile: byUser[u.ID]})
	}
	return out, nil
}

// Get returns one user with its profile
func (s *UserService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*models.UserWithProfile, error) {
	if err := policy.AuthorizeOwnerOr(p, id, policy.ViewOwnData, policy.ViewAllProfiles); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, id)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return &models.UserWithProfile{User: *user, Profile: profile}, nil
}

// SetStatus suspends or reactivates another user's account
func (s *UserService) SetStatus(ctx context.Context, p policy.Principal, id uuid.UUID, status models.AccountStatus) (*models.Profile, error) {
	if err := policy.Authorize(p, policy.SuspendUsers); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown account status %q", apperr.ErrInvalidInput, status)
	}
	if id == p.UserID {
		return nil, fmt.Errorf("%w: cannot change your own account status", apperr.ErrInvalidInput)
	}

	previous, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetStatus(ctx, id, status, s.clock.Now()); err != nil {
		return nil, err
	}

	s.audit.LogTransition(ctx, p.UserID, "user", id, string(previous.AccountStatus), string(status))
	return s.profiles.Get(ctx, id)
}

// SetRole changes another user's role
func (s *UserService) SetRole(ctx context.Context, p policy.Principal, id uuid.UUID, role policy.Role) (*models.Profile, error) {
	if err := policy.Authorize(p, policy.ManageAllProfiles); err != nil {
		return nil, err
	}
	role, err := policy.ParseRole(string(role))
	if err != nil {
		return nil, err
	}
	if id == p.UserID {
		return nil, fmt.Errorf("%w: cannot change your own role", apperr.ErrInvalidInput)
	}

	previous, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetRole(ctx, id, role, s.clock.Now()); err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, p.UserID, "role_changed", "user", &id,
		map[string]interface{}{"from": previous.Role, "to": role})
	return s.profiles.Get(ctx, id)
}

// RecordLogin stamps the user's last successful login
func (s *UserService) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return s.users.UpdateLastLogin(ctx, id, s.clock.Now())
}

// Profile returns the stored profile of a user, or nil when none exists
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}
