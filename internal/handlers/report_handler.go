package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves aggregate reports and data exports
type ReportHandler struct {
	reports *services.ReportService
	logger  *logrus.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *services.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Summary handles GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	report, err := h.reports.Summary(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Financial handles GET /api/v1/reports/financial
func (h *ReportHandler) Financial(c *gin.Context) {
	report, err := h.reports.Financial(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportBookings handles GET /api/v1/reports/bookings.csv
func (h *ReportHandler) ExportBookings(c *gin.Context) {
	var buf bytes.Buffer
	rows, err := h.reports.ExportBookingsCSV(c.Request.Context(), principal(c), &buf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"rows":    rows,
		"user_id": principal(c).UserID,
	}).Info("Bookings exported")

	filename := fmt.Sprintf("bookings-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
