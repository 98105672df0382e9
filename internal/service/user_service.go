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

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateAuthorizedEquipment(ctx context.Context, id string, equipmentIDs []string) (*models.User, error)
}

type equipmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
}

// UserService covers administrative user management.
type UserService struct {
	repo      userRepository
	equipment equipmentFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, equipment equipmentFinder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, equipment: equipment, validator: validate, logger: logger}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, user.Info())
	}
	return infos, nil
}

// Get returns one user's public profile.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	info := user.Info()
	return &info, nil
}

// AssignEquipment replaces the operator's authorized equipment list. Every
// referenced equipment entry must exist.
func (s *UserService) AssignEquipment(ctx context.Context, userID string, req models.AssignEquipmentRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment list")
	}

	for _, equipmentID := range req.EquipmentIDs {
		if _, err := s.equipment.FindByID(ctx, equipmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown equipment: "+equipmentID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify equipment")
		}
	}

	user, err := s.repo.UpdateAuthorizedEquipment(ctx, userID, req.EquipmentIDs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign equipment")
	}

	s.logger.Info("authorized equipment updated",
		zap.String("user_id", userID),
		zap.Int("equipment_count", len(req.EquipmentIDs)),
	)
	info := user.Info()
	return &info, nil
}
