package handlers

import (
	"net/http"
	"strconv"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles user management, system settings and the audit log
type AdminHandler struct {
	users    *services.UserService
	settings *services.SettingService
	audit    *services.AuditService
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users *services.UserService, settings *services.SettingService, audit *services.AuditService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{users: users, settings: settings, audit: audit, logger: logger}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetUser handles GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req models.ProvisionUserRequest
	if !bindAuthorized(c, h.logger, policy.ManageAllProfiles, &req) {
		return
	}

	user, profile, err := h.users.ProvisionAs(c.Request.Context(), principal(c), services.ProvisionInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      policy.Role(req.Role),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Company:   req.Company,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.UserWithProfile{User: *user, Profile: profile})
}

// SetUserStatus handles PATCH /api/v1/admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.SetAccountStatusRequest
	if !bindAuthorized(c, h.logger, policy.SuspendUsers, &req) {
		return
	}

	profile, err := h.users.SetStatus(c.Request.Context(), principal(c), id, models.AccountStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetUserRole handles PATCH /api/v1/admin/users/:id/role
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.SetRoleRequest
	if !bindAuthorized(c, h.logger, policy.ManageAllProfiles, &req) {
		return
	}

	profile, err := h.users.SetRole(c.Request.Context(), principal(c), id, policy.Role(req.Role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListSettings handles GET /api/v1/admin/settings
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings, "count": len(settings)})
}

// GetSetting handles GET /api/v1/admin/settings/:key
func (h *AdminHandler) GetSetting(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), principal(c), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateSetting handles PUT /api/v1/admin/settings/:key
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req models.UpdateSystemSettingRequest
	if !bindAuthorized(c, h.logger, policy.ManageSystemSettings, &req) {
		return
	}

	setting, err := h.settings.Update(c.Request.Context(), principal(c), c.Param("key"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// AuditLog handles GET /api/v1/admin/audit-logs?limit=100
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.audit.Recent(c.Request.Context(), principal(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
