package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/service"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
	"github.com/orefleet/opstrack-api/pkg/response"
)

// CatalogHandler wires the reference-data endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListEquipment godoc
// @Summary List active equipment
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *CatalogHandler) ListEquipment(c *gin.Context) {
	equipment, err := h.service.ListEquipment(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, equipment, map[string]interface{}{"count": len(equipment)})
}

// GetEquipment godoc
// @Summary Get one equipment entry
// @Tags Catalog
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *CatalogHandler) GetEquipment(c *gin.Context) {
	equipment, err := h.service.GetEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, equipment)
}

// ListMaterials godoc
// @Summary List materials
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	materials, err := h.service.ListMaterials(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, materials, map[string]interface{}{"count": len(materials)})
}

// ListActivities godoc
// @Summary List activities
// @Tags Catalog
// @Produce json
// @Param type query string false "Filter by activity type"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *CatalogHandler) ListActivities(c *gin.Context) {
	activityType := models.ActivityType(c.Query("type"))
	activities, err := h.service.ListActivities(c.Request.Context(), activityType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, activities, map[string]interface{}{"count": len(activities)})
}

// GetActivity godoc
// @Summary Get one activity entry
// @Tags Catalog
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *CatalogHandler) GetActivity(c *gin.Context) {
	activity, err := h.service.GetActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, activity)
}

// CreateActivity godoc
// @Summary Create an activity
// @Description Add a new activity to the catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/activities [post]
func (h *CatalogHandler) CreateActivity(c *gin.Context) {
	var req models.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	activity, err := h.service.CreateActivity(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, activity)
}

// AppendCustomReason godoc
// @Summary Append a custom reason
// @Description Add a free-form reason to the activity's custom list
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body models.AppendCustomReasonRequest true "Reason payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id}/custom-reasons [post]
func (h *CatalogHandler) AppendCustomReason(c *gin.Context) {
	var req models.AppendCustomReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reason is required"))
		return
	}

	activity, err := h.service.AppendCustomReason(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, activity)
}
