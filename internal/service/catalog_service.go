package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

type equipmentReader interface {
	ListActive(ctx context.Context) ([]models.Equipment, error)
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
}

type materialReader interface {
	List(ctx context.Context) ([]models.Material, error)
}

type activityRepository interface {
	List(ctx context.Context) ([]models.Activity, error)
	ListByType(ctx context.Context, activityType models.ActivityType) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	AppendCustomReason(ctx context.Context, id, reason string) (*models.Activity, error)
}

// CatalogService serves the reference data operators pick from when starting
// an operation: equipment, materials and activities.
type CatalogService struct {
	equipment  equipmentReader
	materials  materialReader
	activities activityRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(equipment equipmentReader, materials materialReader, activities activityRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		equipment:  equipment,
		materials:  materials,
		activities: activities,
		validator:  validate,
		logger:     logger,
	}
}

// ListEquipment returns the active fleet.
func (s *CatalogService) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	equipment, err := s.equipment.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return equipment, nil
}

// GetEquipment returns one equipment entry.
func (s *CatalogService) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	equipment, err := s.equipment.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch equipment")
	}
	return equipment, nil
}

// ListMaterials returns all materials.
func (s *CatalogService) ListMaterials(ctx context.Context) ([]models.Material, error) {
	materials, err := s.materials.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// ListActivities returns the activity catalog, optionally filtered by type.
func (s *CatalogService) ListActivities(ctx context.Context, activityType models.ActivityType) ([]models.Activity, error) {
	var (
		activities []models.Activity
		err        error
	)
	if activityType == "" {
		activities, err = s.activities.List(ctx)
	} else {
		activities, err = s.activities.ListByType(ctx, activityType)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}

// GetActivity returns one activity entry.
func (s *CatalogService) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch activity")
	}
	return activity, nil
}

// CreateActivity adds a new activity to the catalog.
func (s *CatalogService) CreateActivity(ctx context.Context, req models.CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	activity := &models.Activity{
		Name:           req.Name,
		Type:           req.Type,
		IsTrip:         req.IsTrip,
		StoppedReasons: req.StoppedReasons,
		WaitingReasons: req.WaitingReasons,
		CustomReasons:  []string{},
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}

	s.logger.Info("activity created",
		zap.String("activity_id", activity.ID),
		zap.String("name", activity.Name),
	)
	return activity, nil
}

// AppendCustomReason adds a free-form reason to the activity's custom list.
// Re-adding an existing reason is a no-op.
func (s *CatalogService) AppendCustomReason(ctx context.Context, activityID string, req models.AppendCustomReasonRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reason is required")
	}

	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch activity")
	}

	activity, err := s.activities.AppendCustomReason(ctx, activityID, req.Reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append custom reason")
	}
	return activity, nil
}
