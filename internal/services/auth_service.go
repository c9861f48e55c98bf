package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/session"
	"github.com/deskhub/facility-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// ErrTokenRevoked is returned for a token that was logged out
var ErrTokenRevoked = errors.New("token has been revoked")

// AuthService handles registration, login and logout
type AuthService struct {
	users      *UserService
	jwtService *jwt.Service
	revoker    session.Revoker
	limiter    *RateLimitService
	audit      *AuditService
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *UserService,
	jwtService *jwt.Service,
	revoker session.Revoker,
	limiter *RateLimitService,
	audit *AuditService,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		revoker:    revoker,
		limiter:    limiter,
		audit:      audit,
		logger:     logger,
	}
}

// Register creates a member account and logs it in
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	user, profile, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	s.audit.LogChange(ctx, user.ID, "register", "user", &user.ID,
		map[string]interface{}{"username": user.Username})

	return s.issue(ctx, user, profile)
}

// Login verifies credentials and issues an access token. Suspended accounts
// cannot log in.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if s.limiter != nil {
		if err := s.limiter.CheckUsername(req.Username); err != nil {
			s.audit.LogLoginFailed(ctx, req.Username, "rate_limited")
			return nil, err
		}
	}

	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			s.audit.LogLoginFailed(ctx, req.Username, "invalid_credentials")
		}
		return nil, err
	}

	profile, err := s.users.Profile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil && profile.AccountStatus == models.AccountStatusSuspended {
		s.audit.LogLoginFailed(ctx, req.Username, "suspended")
		return nil, fmt.Errorf("%w: account is suspended", apperr.ErrPermissionDenied)
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		// Log error but don't fail the login
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	s.audit.LogLogin(ctx, user.ID, user.Username)
	return s.issue(ctx, user, profile)
}

func (s *AuthService) issue(ctx context.Context, user *models.User, profile *models.Profile) (*models.LoginResponse, error) {
	token, claims, err := s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Access token issued")

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.Expiry().Seconds()),
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
		Profile:     profile,
	}, nil
}

// Authenticate validates a bearer token and rejects revoked ones
func (s *AuthService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Inspect decodes a token without verifying it. Only use it for logging.
func (s *AuthService) Inspect(token string) (*jwt.Claims, error) {
	return s.jwtService.ExtractClaims(token)
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return apperr.ErrUnauthenticated
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.audit.LogLogout(ctx, claims.UserID)
	return nil
}
