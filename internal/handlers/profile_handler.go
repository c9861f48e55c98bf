package handlers

import (
	"net/http"

	"github.com/deskhub/facility-backend/internal/middleware"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProfileHandler serves the caller's own profile and dashboard
type ProfileHandler struct {
	profiles *services.ProfileService
	reports  *services.ReportService
	logger   *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *services.ProfileService, reports *services.ReportService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, reports: reports, logger: logger}
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindAuthorized(c, h.logger, policy.EditOwnProfile, &req) {
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), principal(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Dashboard handles GET /api/v1/dashboard
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reports.Dashboard(c.Request.Context(), principal(c), middleware.GetProfile(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
