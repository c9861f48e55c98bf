package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/deskhub/facility-backend/internal/conflict"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MembershipHandler handles membership plans and subscriptions
type MembershipHandler struct {
	plans         *services.PlanService
	subscriptions *services.SubscriptionService
	logger        *logrus.Logger
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(plans *services.PlanService, subscriptions *services.SubscriptionService, logger *logrus.Logger) *MembershipHandler {
	return &MembershipHandler{plans: plans, subscriptions: subscriptions, logger: logger}
}

// ListPlans handles GET /api/v1/plans?all=true
func (h *MembershipHandler) ListPlans(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("all"))

	plans, err := h.plans.List(c.Request.Context(), principal(c), includeInactive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

// GetPlan handles GET /api/v1/plans/:id
func (h *MembershipHandler) GetPlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan handles POST /api/v1/plans
func (h *MembershipHandler) CreatePlan(c *gin.Context) {
	var req models.CreatePlanRequest
	if !bindAuthorized(c, h.logger, policy.ManageMembershipPlans, &req) {
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan handles PUT /api/v1/plans/:id
func (h *MembershipHandler) UpdatePlan(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdatePlanRequest
	if !bindAuthorized(c, h.logger, policy.ManageMembershipPlans, &req) {
		return
	}

	plan, err := h.plans.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListSubscriptions handles GET /api/v1/subscriptions?mine=true
func (h *MembershipHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subscriptions.List(c.Request.Context(), principal(c), mineOnly(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

// ActiveSubscription handles GET /api/v1/subscriptions/active
func (h *MembershipHandler) ActiveSubscription(c *gin.Context) {
	sub, err := h.subscriptions.ActiveFor(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// GetSubscription handles GET /api/v1/subscriptions/:id
func (h *MembershipHandler) GetSubscription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptions.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// CreateSubscription handles POST /api/v1/subscriptions
func (h *MembershipHandler) CreateSubscription(c *gin.Context) {
	var req models.CreateSubscriptionRequest
	if !bindAuthorized(c, h.logger, policy.CreateSubscription, &req) {
		return
	}

	planID, err := parseID("plan_id", req.PlanID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	start, err := conflict.ParseDate(req.StartDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var end *time.Time
	if req.EndDate != "" {
		parsed, err := conflict.ParseDate(req.EndDate)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		end = &parsed
	}

	sub, err := h.subscriptions.Create(c.Request.Context(), principal(c), planID, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// CancelSubscription handles POST /api/v1/subscriptions/:id/cancel
func (h *MembershipHandler) CancelSubscription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptions.Cancel(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
