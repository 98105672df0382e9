package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/service"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
	"github.com/orefleet/opstrack-api/pkg/response"
)

// ReportHandler wires the aggregation endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Daily godoc
// @Summary Daily operations report
// @Description Aggregates the closed operations of one calendar day
// @Tags Reports
// @Produce json
// @Param date query string false "Report date (YYYY-MM-DD), defaults to today"
// @Param operator query string false "Filter by operator ID"
// @Param equipment query string false "Filter by equipment ID"
// @Success 200 {object} response.Envelope
// @Router /reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	req := models.DailyReportRequest{
		OperatorID:  c.Query("operator"),
		EquipmentID: c.Query("equipment"),
	}
	if date, err := parseDateQuery(c, "date"); err != nil {
		response.Error(c, err)
		return
	} else if date != nil {
		req.Date = *date
	}

	report, cached, err := h.service.Daily(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, report, map[string]interface{}{"cached": cached})
}

// Performance godoc
// @Summary Performance dashboard
// @Description Groups closed operations in the date range by equipment and operator
// @Tags Reports
// @Produce json
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	var req models.PerformanceRequest
	var err error
	if req.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		response.Error(c, err)
		return
	}
	if req.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		response.Error(c, err)
		return
	}

	dashboard, cached, err := h.service.Performance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dashboard, map[string]interface{}{"cached": cached})
}

// Export godoc
// @Summary Export operations
// @Description Renders closed operations in the range as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param operator query string false "Filter by operator ID"
// @Param equipment query string false "Filter by equipment ID"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	req := models.ExportRequest{
		Format:      models.ExportFormat(c.DefaultQuery("format", string(models.ExportCSV))),
		OperatorID:  c.Query("operator"),
		EquipmentID: c.Query("equipment"),
	}
	var err error
	if req.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		response.Error(c, err)
		return
	}
	if req.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if file == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
