package handlers

import (
	"context"
	"net/http"

	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LeaseHandler handles long-term lease contracts
type LeaseHandler struct {
	leases *services.LeaseService
	logger *logrus.Logger
}

// NewLeaseHandler creates a new lease handler
func NewLeaseHandler(leases *services.LeaseService, logger *logrus.Logger) *LeaseHandler {
	return &LeaseHandler{leases: leases, logger: logger}
}

// List handles GET /api/v1/leases?status=active&mine=true
func (h *LeaseHandler) List(c *gin.Context) {
	var status *models.LeaseStatus
	if raw := c.Query("status"); raw != "" {
		s, err := models.ParseLeaseStatus(raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		status = &s
	}

	leases, err := h.leases.List(c.Request.Context(), principal(c), status, mineOnly(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leases": leases, "count": len(leases)})
}

// Get handles GET /api/v1/leases/:id
func (h *LeaseHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	lease, err := h.leases.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lease)
}

// Create handles POST /api/v1/leases
func (h *LeaseHandler) Create(c *gin.Context) {
	var req models.CreateLeaseRequest
	if !bindAuthorized(c, h.logger, policy.ManageLeases, &req) {
		return
	}

	start, err := conflict.ParseDate(req.StartDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	end, err := conflict.ParseDate(req.EndDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resourceID, err := parseID("resource_id", req.ResourceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	in := services.ProposeLeaseInput{
		ResourceID:    resourceID,
		Period:        conflict.Interval{Start: start, End: end},
		MonthlyRent:   req.MonthlyRent,
		DepositAmount: req.DepositAmount,
		Terms:         req.TermsAndConditions,
	}
	if req.UserID != nil {
		lessee, err := parseID("user_id", *req.UserID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		in.LesseeID = &lessee
	}

	lease, err := h.leases.Propose(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, lease)
}

// Activate handles POST /api/v1/leases/:id/activate
func (h *LeaseHandler) Activate(c *gin.Context) {
	h.transition(c, h.leases.Activate)
}

// Reject handles POST /api/v1/leases/:id/reject
func (h *LeaseHandler) Reject(c *gin.Context) {
	h.transition(c, h.leases.Reject)
}

// Terminate handles POST /api/v1/leases/:id/terminate
func (h *LeaseHandler) Terminate(c *gin.Context) {
	h.transition(c, h.leases.Terminate)
}

func (h *LeaseHandler) transition(c *gin.Context, fn func(context.Context, policy.Principal, uuid.UUID) (*models.LeaseContract, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	lease, err := fn(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lease)
}
