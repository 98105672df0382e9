package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

type operationRepository interface {
	Create(ctx context.Context, op *models.Operation) error
	Update(ctx context.Context, op *models.Operation) error
	FindByID(ctx context.Context, id string) (*models.Operation, error)
	FindDetailByID(ctx context.Context, id string) (*models.OperationDetail, error)
	FindOpenByOperator(ctx context.Context, operatorID string) (*models.OperationDetail, error)
	List(ctx context.Context, operatorID string, filter models.OperationListFilter) ([]models.OperationDetail, error)
	ListAll(ctx context.Context, filter models.AdminOperationFilter) ([]models.OperationDetail, error)
}

type operatorReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// OperationService is the operation lifecycle manager. It enforces the
// one-open-operation-per-operator invariant and ownership on mutations.
type OperationService struct {
	repo      operationRepository
	users     operatorReader
	validator *validator.Validate
	logger    *zap.Logger
	audit     *AuditService
	now       func() time.Time
}

// NewOperationService constructs an OperationService.
func NewOperationService(repo operationRepository, users operatorReader, validate *validator.Validate, logger *zap.Logger, audit *AuditService) *OperationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationService{
		repo:      repo,
		users:     users,
		validator: validate,
		logger:    logger,
		audit:     audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a new operation for the operator. The open-operation check and
// the insert are backed by a storage-level uniqueness constraint, so the
// losing side of a concurrent start for the same operator fails with the
// same conflict error as the pre-check.
func (s *OperationService) Start(ctx context.Context, operatorID string, req models.StartOperationRequest) (*models.OperationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "equipment and activity are required")
	}

	operator, err := s.users.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown operator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch operator")
	}
	if !operator.MayOperate(req.EquipmentID) {
		return nil, appErrors.Clone(appErrors.ErrEquipmentNotAuthorized, "")
	}

	if _, err := s.repo.FindOpenByOperator(ctx, operatorID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrOpenOperationExists, "you already have an open operation, stop it first")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open operations")
	}

	op := &models.Operation{
		EquipmentID:     req.EquipmentID,
		OperatorID:      operatorID,
		ActivityID:      req.ActivityID,
		MaterialID:      req.MaterialID,
		TruckID:         req.TruckID,
		MiningFront:     req.MiningFront,
		Destination:     req.Destination,
		ActivityDetails: req.ActivityDetails,
		StartTime:       s.now(),
	}
	if err := s.repo.Create(ctx, op); err != nil {
		if errors.Is(err, appErrors.ErrOpenOperationExists) {
			return nil, appErrors.Clone(appErrors.ErrOpenOperationExists, "you already have an open operation, stop it first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create operation")
	}

	s.recordAudit(operatorID, op.ID, models.AuditActionStartOperation)

	return s.detail(ctx, op.ID)
}

// Stop closes an operation. Stopping twice is rejected, not absorbed, so
// double-submitting clients surface instead of silently succeeding.
func (s *OperationService) Stop(ctx context.Context, operationID, callerID string, req models.StopOperationRequest) (*models.OperationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "distance must be non-negative")
	}

	op, err := s.repo.FindByID(ctx, operationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrOperationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch operation")
	}
	if op.OperatorID != callerID {
		return nil, appErrors.Clone(appErrors.ErrNotOperationOwner, "unauthorized to stop this operation")
	}
	if op.EndTime != nil {
		return nil, appErrors.Clone(appErrors.ErrOperationClosed, "")
	}

	end := s.now()
	op.EndTime = &end
	if req.Distance != nil {
		op.Distance = *req.Distance
	}
	if err := s.repo.Update(ctx, op); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stop operation")
	}

	s.recordAudit(callerID, op.ID, models.AuditActionStopOperation)

	return s.detail(ctx, op.ID)
}

// Update applies a partial mutation to an operation, open or closed. Absent
// fields are untouched; explicit nulls clear the optional fields.
func (s *OperationService) Update(ctx context.Context, operationID, callerID string, req models.UpdateOperationRequest) (*models.OperationDetail, error) {
	op, err := s.repo.FindByID(ctx, operationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrOperationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch operation")
	}
	if op.OperatorID != callerID {
		return nil, appErrors.Clone(appErrors.ErrNotOperationOwner, "unauthorized to update this operation")
	}

	if req.ActivityID.Set {
		if req.ActivityID.Value == nil || *req.ActivityID.Value == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "activity cannot be cleared")
		}
		op.ActivityID = *req.ActivityID.Value
	}
	if req.Distance.Set {
		if req.Distance.Value == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "distance cannot be null")
		}
		if *req.Distance.Value < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "distance must be non-negative")
		}
		op.Distance = *req.Distance.Value
	}
	if req.ActivityDetails.Set {
		op.ActivityDetails = req.ActivityDetails.Value
	}
	if req.MaterialID.Set {
		op.MaterialID = req.MaterialID.Value
	}
	if req.TruckID.Set {
		op.TruckID = req.TruckID.Value
	}
	if req.MiningFront.Set {
		op.MiningFront = req.MiningFront.Value
	}
	if req.Destination.Set {
		op.Destination = req.Destination.Value
	}

	if err := s.repo.Update(ctx, op); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update operation")
	}

	s.recordAudit(callerID, op.ID, models.AuditActionEditOperation)

	return s.detail(ctx, op.ID)
}

// Current returns the operator's open operation, or nil when idle. An empty
// result is not an error.
func (s *OperationService) Current(ctx context.Context, operatorID string) (*models.OperationDetail, error) {
	detail, err := s.repo.FindOpenByOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch current operation")
	}
	return detail, nil
}

// Get returns one operation, visible to its owner and to administrators.
func (s *OperationService) Get(ctx context.Context, operationID, callerID string, role models.UserRole) (*models.OperationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, operationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrOperationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch operation")
	}
	if detail.OperatorID != callerID && role != models.RoleAdministrator {
		return nil, appErrors.Clone(appErrors.ErrNotOperationOwner, "unauthorized to view this operation")
	}
	return detail, nil
}

// List returns the caller's operation history, newest first.
func (s *OperationService) List(ctx context.Context, operatorID string, filter models.OperationListFilter) ([]models.OperationDetail, error) {
	operations, err := s.repo.List(ctx, operatorID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list operations")
	}
	return operations, nil
}

// ListAll returns fleet-wide operations for administrators.
func (s *OperationService) ListAll(ctx context.Context, filter models.AdminOperationFilter) ([]models.OperationDetail, error) {
	operations, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list operations")
	}
	return operations, nil
}

func (s *OperationService) detail(ctx context.Context, id string) (*models.OperationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operation detail")
	}
	return detail, nil
}

func (s *OperationService) recordAudit(userID, operationID, action string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "operation",
		ResourceID: &operationID,
	})
}
