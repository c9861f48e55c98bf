package handlers

import (
	"net/http"

	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ResourceHandler handles the resource inventory
type ResourceHandler struct {
	resources *services.ResourceService
	logger    *logrus.Logger
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resources *services.ResourceService, logger *logrus.Logger) *ResourceHandler {
	return &ResourceHandler{resources: resources, logger: logger}
}

// List handles GET /api/v1/resources?type=room
func (h *ResourceHandler) List(c *gin.Context) {
	var resourceType *models.ResourceType
	if raw := c.Query("type"); raw != "" {
		t, err := models.ParseResourceType(raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		resourceType = &t
	}

	resources, err := h.resources.List(c.Request.Context(), principal(c), resourceType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources, "count": len(resources)})
}

// Get handles GET /api/v1/resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.resources.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/v1/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req models.CreateResourceRequest
	if !bindAuthorized(c, h.logger, policy.ManageResources, &req) {
		return
	}

	resource, err := h.resources.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

// Update handles PUT /api/v1/resources/:id
func (h *ResourceHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateResourceRequest
	if !bindAuthorized(c, h.logger, policy.ManageResources, &req) {
		return
	}

	resource, err := h.resources.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

// SetStatus handles PATCH /api/v1/resources/:id/status
func (h *ResourceHandler) SetStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.SetResourceStatusRequest
	if !bindAuthorized(c, h.logger, policy.SetResourceStatus, &req) {
		return
	}

	resource, err := h.resources.SetStatus(c.Request.Context(), principal(c), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}
