package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/service"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
	"github.com/orefleet/opstrack-api/pkg/response"
)

// OperationHandler wires HTTP endpoints to the operation lifecycle service.
type OperationHandler struct {
	service *service.OperationService
}

// NewOperationHandler creates a new handler.
func NewOperationHandler(svc *service.OperationService) *OperationHandler {
	return &OperationHandler{service: svc}
}

// Start godoc
// @Summary Start an operation
// @Description Open a new operation for the authenticated operator
// @Tags Operations
// @Accept json
// @Produce json
// @Param payload body models.StartOperationRequest true "Operation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /operations/start [post]
func (h *OperationHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.StartOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid operation payload"))
		return
	}

	detail, err := h.service.Start(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// Stop godoc
// @Summary Stop an operation
// @Description Close the operation, recording end time and optional distance
// @Tags Operations
// @Accept json
// @Produce json
// @Param id path string true "Operation ID"
// @Param payload body models.StopOperationRequest false "Stop payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /operations/{id}/stop [post]
func (h *OperationHandler) Stop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.StopOperationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stop payload"))
			return
		}
	}

	detail, err := h.service.Stop(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, detail)
}

// Update godoc
// @Summary Update an operation
// @Description Partially update an operation; absent fields stay untouched, nulls clear optional fields
// @Tags Operations
// @Accept json
// @Produce json
// @Param id path string true "Operation ID"
// @Param payload body models.UpdateOperationRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /operations/{id} [put]
func (h *OperationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	detail, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, detail)
}

// Current godoc
// @Summary Get current operation
// @Description Returns the operator's open operation, or null when idle
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /operations/current [get]
func (h *OperationHandler) Current(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Current(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, detail)
}

// List godoc
// @Summary List own operations
// @Description Returns the operator's operation history, newest first
// @Tags Operations
// @Produce json
// @Param startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param endDate query string false "Filter to date (YYYY-MM-DD)"
// @Param equipment query string false "Filter by equipment ID"
// @Param activity query string false "Filter by activity ID"
// @Success 200 {object} response.Envelope
// @Router /operations [get]
func (h *OperationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.OperationListFilter{
		EquipmentID: c.Query("equipment"),
		ActivityID:  c.Query("activity"),
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

	operations, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, operations, map[string]interface{}{"count": len(operations)})
}

// Get godoc
// @Summary Get one operation
// @Description Returns one operation, visible to its owner and administrators
// @Tags Operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /operations/{id} [get]
func (h *OperationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, detail)
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be formatted as YYYY-MM-DD")
	}
	return &ts, nil
}
