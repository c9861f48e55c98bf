package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/middleware"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	target error
	status int
	kind   string
	code   string
}

// Checked in order; the first match wins
var errorMappings = []errorMapping{
	{apperr.ErrConflict, http.StatusConflict, "conflict", "TIME_SLOT_CONFLICT"},
	{apperr.ErrUsernameTaken, http.StatusConflict, "conflict", "USERNAME_TAKEN"},
	{apperr.ErrInvalidState, http.StatusConflict, "invalid_state", "INVALID_STATE"},
	{apperr.ErrResourceUnavailable, http.StatusConflict, "resource_unavailable", "RESOURCE_UNAVAILABLE"},
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{apperr.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "INVALID_CREDENTIALS"},
	{apperr.ErrProfileNotFound, http.StatusForbidden, "forbidden", "PROFILE_NOT_FOUND"},
	{apperr.ErrPermissionDenied, http.StatusForbidden, "forbidden", "PERMISSION_DENIED"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found", "NOT_FOUND"},
	{apperr.ErrPastStartTime, http.StatusBadRequest, "validation_error", "PAST_START_TIME"},
	{apperr.ErrPastStartDate, http.StatusBadRequest, "validation_error", "PAST_START_DATE"},
	{apperr.ErrInvalidRange, http.StatusBadRequest, "validation_error", "INVALID_RANGE"},
	{apperr.ErrInvalidInput, http.StatusBadRequest, "validation_error", "INVALID_INPUT"},
}

// respondError maps a service error to an HTTP response. Unknown errors are
// logged and reported as 500 without detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		retry := int(time.Until(rateLimitErr.RetryAfter).Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Message,
			"retry_after": rateLimitErr.RetryAfter,
			"type":        rateLimitErr.Type,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: m.kind, Message: err.Error(), Code: m.code})
			return
		}
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Request failed")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

// respondValidation reports a request body or query that failed to bind
func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request: " + err.Error(),
		Code:    "INVALID_REQUEST",
	})
}

// bindAuthorized checks the caller may perform action before binding the
// JSON body, so a forbidden caller never learns about validation rules.
func bindAuthorized(c *gin.Context, logger *logrus.Logger, action policy.Action, req interface{}) bool {
	if err := policy.Authorize(principal(c), action); err != nil {
		respondError(c, logger, err)
		return false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

// principal returns the caller loaded by middleware.LoadPrincipal. An absent
// principal is unauthenticated and fails every policy check.
func principal(c *gin.Context) policy.Principal {
	p, _ := middleware.GetPrincipal(c)
	return p
}

// uuidParam parses a path parameter, writing a 400 on failure
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid " + name,
			Code:    "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// mineOnly reads the ?mine=true switch that narrows staff listings to their own rows
func mineOnly(c *gin.Context) bool {
	mine, _ := strconv.ParseBool(c.Query("mine"))
	return mine
}

// parseID parses a UUID taken from a request body
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", apperr.ErrInvalidInput, field)
	}
	return id, nil
}
