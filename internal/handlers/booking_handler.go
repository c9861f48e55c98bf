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

// BookingHandler handles hourly booking requests and their review
type BookingHandler struct {
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// List handles GET /api/v1/bookings?status=pending&mine=true
func (h *BookingHandler) List(c *gin.Context) {
	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s, err := models.ParseBookingStatus(raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		status = &s
	}

	bookings, err := h.bookings.List(c.Request.Context(), principal(c), status, mineOnly(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req models.CreateBookingRequest
	if !bindAuthorized(c, h.logger, policy.CreateBooking, &req) {
		return
	}

	resourceID, err := parseID("resource_id", req.ResourceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	in := services.ProposeBookingInput{
		ResourceID: resourceID,
		Interval:   conflict.Interval{Start: req.StartTime, End: req.EndTime},
		Notes:      req.Notes,
	}
	if req.UserID != nil {
		onBehalfOf, err := parseID("user_id", *req.UserID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		in.OnBehalfOf = &onBehalfOf
	}

	booking, err := h.bookings.Propose(c.Request.Context(), principal(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// Approve handles POST /api/v1/bookings/:id/approve
func (h *BookingHandler) Approve(c *gin.Context) {
	h.transition(c, h.bookings.Approve)
}

// Reject handles POST /api/v1/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	h.transition(c, h.bookings.Reject)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.bookings.Cancel)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(context.Context, policy.Principal, uuid.UUID) (*models.Booking, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	booking, err := fn(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
