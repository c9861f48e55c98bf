package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/deskhub/facility-backend/internal/services"
	"github.com/deskhub/facility-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestMeta copies the client IP and user agent into the request context
// so audit entries can record them.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := services.WithRequestMeta(c.Request.Context(), services.RequestMeta{
			IPAddress: utils.ClientIP(c),
			UserAgent: utils.UserAgent(c),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RateLimit throttles requests per client IP
func RateLimit(limiter *services.RateLimitService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.ClientIP(c)
		if err := limiter.CheckIP(ip); err != nil {
			rateLimitErr, ok := err.(*services.RateLimitError)
			if !ok {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "rate_limit_check_failed",
					"message": "Failed to check rate limit",
				})
				return
			}

			logger.WithFields(logrus.Fields{
				"ip":          ip,
				"path":        c.Request.URL.Path,
				"retry_after": rateLimitErr.RetryAfter,
			}).Warn("Rate limit exceeded")

			retry := int(time.Until(rateLimitErr.RetryAfter).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     rateLimitErr.Message,
				"retry_after": rateLimitErr.RetryAfter,
				"type":        rateLimitErr.Type,
			})
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request with logrus
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         utils.ClientIP(c),
			"latency":    time.Since(start).String(),
			"user_agent": c.Request.UserAgent(),
		}
		if userID, exists := c.Get("user_id"); exists {
			fields["user_id"] = userID
		}
		if role, exists := c.Get("role"); exists {
			fields["role"] = role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
