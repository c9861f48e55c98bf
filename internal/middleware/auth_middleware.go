package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/deskhub/facility-backend/internal/services"
	"github.com/deskhub/facility-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ClaimsContextKey is the key used to store validated token claims in Gin context
const ClaimsContextKey = "claims"

// AuthMiddleware creates a middleware that validates bearer tokens and
// rejects revoked ones
func AuthMiddleware(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := logger.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		})

		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			entry.Warn("Auth failed: missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
				"code":    "MISSING_AUTH_HEADER",
			})
			return
		}

		// Check Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			entry.Warn("Auth failed: invalid authorization format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
				"code":    "INVALID_AUTH_FORMAT",
			})
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		claims, err := authService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrExpired):
				if expired, inspectErr := authService.Inspect(tokenString); inspectErr == nil {
					entry = entry.WithField("user_id", expired.UserID)
				}
				entry.Info("Auth failed: token expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Access token has expired. Please log in again.",
					"code":    "TOKEN_EXPIRED",
				})
			case errors.Is(err, services.ErrTokenRevoked):
				entry.Info("Auth failed: token revoked")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "token_revoked",
					"message": "Access token has been revoked",
					"code":    "TOKEN_REVOKED",
				})
			default:
				entry.WithError(err).Warn("Auth failed: invalid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid access token",
					"code":    "INVALID_TOKEN",
				})
			}
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set("user_id", claims.UserID.String())
		c.Set("username", claims.Username)

		c.Next()
	}
}

// GetClaims retrieves the validated token claims from Gin context
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}
