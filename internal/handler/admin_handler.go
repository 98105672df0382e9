package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/service"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
	"github.com/orefleet/opstrack-api/pkg/response"
)

// AdminHandler wires the fleet monitoring endpoints.
type AdminHandler struct {
	monitor    *service.MonitorService
	operations *service.OperationService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(monitor *service.MonitorService, operations *service.OperationService) *AdminHandler {
	return &AdminHandler{monitor: monitor, operations: operations}
}

// InactivityAlerts godoc
// @Summary List inactivity alerts
// @Description Open operations running at least thresholdMinutes, most overdue first
// @Tags Monitoring
// @Produce json
// @Param thresholdMinutes query int false "Inclusion threshold in minutes"
// @Success 200 {object} response.Envelope
// @Router /admin/alerts [get]
func (h *AdminHandler) InactivityAlerts(c *gin.Context) {
	threshold := 0
	if raw := c.Query("thresholdMinutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "thresholdMinutes must be a non-negative integer"))
			return
		}
		threshold = parsed
	}

	report, err := h.monitor.InactivityAlerts(c.Request.Context(), threshold)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, report)
}

// OperatorsStatus godoc
// @Summary List operator statuses
// @Description Every operator's current state: idle, active or inactive
// @Tags Monitoring
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/operators/status [get]
func (h *AdminHandler) OperatorsStatus(c *gin.Context) {
	statuses, err := h.monitor.OperatorsStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, statuses, map[string]interface{}{"count": len(statuses)})
}

// Dashboard godoc
// @Summary Fleet dashboard stats
// @Description Fleet-wide activity counters for the admin landing view
// @Tags Monitoring
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.monitor.DashboardStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}

// ListOperations godoc
// @Summary List fleet operations
// @Description Fleet-wide operation listing with filters
// @Tags Monitoring
// @Produce json
// @Param startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param endDate query string false "Filter to date (YYYY-MM-DD)"
// @Param operator query string false "Filter by operator ID"
// @Param equipment query string false "Filter by equipment ID"
// @Param activity query string false "Filter by activity ID"
// @Param status query string false "active or completed"
// @Success 200 {object} response.Envelope
// @Router /admin/operations [get]
func (h *AdminHandler) ListOperations(c *gin.Context) {
	filter := models.AdminOperationFilter{
		OperatorID:  c.Query("operator"),
		EquipmentID: c.Query("equipment"),
		ActivityID:  c.Query("activity"),
	}

	switch status := models.OperationStatusFilter(c.Query("status")); status {
	case models.OperationStatusAny, models.OperationStatusActive, models.OperationStatusCompleted:
		filter.Status = status
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be active or completed"))
		return
	}

	var err error
	if filter.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		response.Error(c, err)
		return
	}

	operations, err := h.operations.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, operations, map[string]interface{}{"count": len(operations)})
}
