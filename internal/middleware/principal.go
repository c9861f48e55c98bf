package middleware

import (
	"errors"
	"net/http"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// PrincipalContextKey holds the policy.Principal of the caller
	PrincipalContextKey = "principal"
	// ProfileContextKey holds the caller's *models.Profile once ensured
	ProfileContextKey = "profile"
)

// LoadPrincipal resolves the caller's role and account status from the
// profile store. Must be used after AuthMiddleware.
func LoadPrincipal(users *services.UserService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := GetClaims(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		principal, _, err := users.Principal(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "unauthorized",
					"message": "User account no longer exists",
					"code":    "USER_NOT_FOUND",
				})
				return
			}
			logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to load principal")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to load user",
			})
			return
		}

		c.Set(PrincipalContextKey, principal)
		if principal.HasProfile {
			c.Set("role", string(principal.Role))
		}
		c.Next()
	}
}

// EnsureProfile gives a profile-less principal a default member profile.
// Only the profile and dashboard routes use it.
func EnsureProfile(profiles *services.ProfileService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		principal, profile, err := profiles.Ensure(c.Request.Context(), principal)
		if err != nil {
			logger.WithError(err).WithField("user_id", principal.UserID).Error("Failed to ensure profile")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to load profile",
			})
			return
		}

		c.Set(PrincipalContextKey, principal)
		c.Set(ProfileContextKey, profile)
		c.Set("role", string(principal.Role))
		c.Next()
	}
}

// GetPrincipal retrieves the caller's principal from Gin context
func GetPrincipal(c *gin.Context) (policy.Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		return policy.Principal{}, false
	}
	principal, ok := value.(policy.Principal)
	return principal, ok
}

// GetProfile retrieves the profile stored by EnsureProfile
func GetProfile(c *gin.Context) *models.Profile {
	value, exists := c.Get(ProfileContextKey)
	if !exists {
		return nil
	}
	profile, _ := value.(*models.Profile)
	return profile
}
