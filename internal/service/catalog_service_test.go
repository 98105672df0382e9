package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

type mockEquipmentRepo struct {
	equipment []models.Equipment
}

func (m *mockEquipmentRepo) ListActive(ctx context.Context) ([]models.Equipment, error) {
	return m.equipment, nil
}

func (m *mockEquipmentRepo) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	for i := range m.equipment {
		if m.equipment[i].ID == id {
			return &m.equipment[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockMaterialRepo struct {
	materials []models.Material
}

func (m *mockMaterialRepo) List(ctx context.Context) ([]models.Material, error) {
	return m.materials, nil
}

type mockActivityRepo struct {
	activities map[string]*models.Activity
	created    *models.Activity
	appended   string
}

func (m *mockActivityRepo) List(ctx context.Context) ([]models.Activity, error) {
	var result []models.Activity
	for _, activity := range m.activities {
		result = append(result, *activity)
	}
	return result, nil
}

func (m *mockActivityRepo) ListByType(ctx context.Context, activityType models.ActivityType) ([]models.Activity, error) {
	var result []models.Activity
	for _, activity := range m.activities {
		if activity.Type == activityType {
			result = append(result, *activity)
		}
	}
	return result, nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	activity, ok := m.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return activity, nil
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	activity.ID = "act-new"
	m.created = activity
	return nil
}

func (m *mockActivityRepo) AppendCustomReason(ctx context.Context, id, reason string) (*models.Activity, error) {
	m.appended = reason
	activity := m.activities[id]
	activity.CustomReasons = append(activity.CustomReasons, reason)
	return activity, nil
}

func newCatalogService(equipment *mockEquipmentRepo, materials *mockMaterialRepo, activities *mockActivityRepo) *CatalogService {
	return NewCatalogService(equipment, materials, activities, validator.New(), zap.NewNop())
}

func TestCatalogCreateActivity(t *testing.T) {
	activities := &mockActivityRepo{activities: map[string]*models.Activity{}}
	svc := newCatalogService(&mockEquipmentRepo{}, &mockMaterialRepo{}, activities)

	activity, err := svc.CreateActivity(context.Background(), models.CreateActivityRequest{
		Name:   "Haul to dump",
		Type:   models.ActivityTransport,
		IsTrip: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "act-new", activity.ID)
	assert.True(t, activity.IsTrip)
	require.NotNil(t, activities.created)
}

func TestCatalogCreateActivityRejectsUnknownType(t *testing.T) {
	svc := newCatalogService(&mockEquipmentRepo{}, &mockMaterialRepo{}, &mockActivityRepo{})

	_, err := svc.CreateActivity(context.Background(), models.CreateActivityRequest{
		Name: "Haul to dump",
		Type: "flying",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCatalogAppendCustomReason(t *testing.T) {
	activities := &mockActivityRepo{activities: map[string]*models.Activity{
		"act-1": {ID: "act-1", Name: "Loading", Type: models.ActivityLoading},
	}}
	svc := newCatalogService(&mockEquipmentRepo{}, &mockMaterialRepo{}, activities)

	activity, err := svc.AppendCustomReason(context.Background(), "act-1", models.AppendCustomReasonRequest{
		Reason: "Fueling",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fueling", activities.appended)
	assert.Contains(t, []string(activity.CustomReasons), "Fueling")
}

func TestCatalogAppendCustomReasonUnknownActivity(t *testing.T) {
	svc := newCatalogService(&mockEquipmentRepo{}, &mockMaterialRepo{}, &mockActivityRepo{activities: map[string]*models.Activity{}})

	_, err := svc.AppendCustomReason(context.Background(), "missing", models.AppendCustomReasonRequest{Reason: "Fueling"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceAssignEquipmentValidatesCatalog(t *testing.T) {
	equipment := &mockEquipmentRepo{equipment: []models.Equipment{{ID: "11111111-1111-4111-8111-111111111111"}}}
	users := &mockUserAdminRepo{user: &models.User{ID: "u1", Role: models.RoleOperator}}
	svc := NewUserService(users, equipment, validator.New(), zap.NewNop())

	_, err := svc.AssignEquipment(context.Background(), "u1", models.AssignEquipmentRequest{
		EquipmentIDs: []string{"11111111-1111-4111-8111-111111111111"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"11111111-1111-4111-8111-111111111111"}, users.assigned)

	_, err = svc.AssignEquipment(context.Background(), "u1", models.AssignEquipmentRequest{
		EquipmentIDs: []string{"22222222-2222-4222-8222-222222222222"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

type mockUserAdminRepo struct {
	user     *models.User
	assigned []string
}

func (m *mockUserAdminRepo) List(ctx context.Context) ([]models.User, error) {
	if m.user == nil {
		return nil, nil
	}
	return []models.User{*m.user}, nil
}

func (m *mockUserAdminRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockUserAdminRepo) UpdateAuthorizedEquipment(ctx context.Context, id string, equipmentIDs []string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	m.assigned = equipmentIDs
	m.user.AuthorizedEquipment = equipmentIDs
	return m.user, nil
}
