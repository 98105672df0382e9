package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

type mockOperationRepo struct {
	open      *models.OperationDetail
	byID      *models.Operation
	detail    *models.OperationDetail
	created   *models.Operation
	updated   *models.Operation
	createErr error
	listed    []models.OperationDetail
}

func (m *mockOperationRepo) Create(ctx context.Context, op *models.Operation) error {
	if m.createErr != nil {
		return m.createErr
	}
	op.ID = "op-1"
	m.created = op
	return nil
}

func (m *mockOperationRepo) Update(ctx context.Context, op *models.Operation) error {
	m.updated = op
	return nil
}

func (m *mockOperationRepo) FindByID(ctx context.Context, id string) (*models.Operation, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockOperationRepo) FindDetailByID(ctx context.Context, id string) (*models.OperationDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockOperationRepo) FindOpenByOperator(ctx context.Context, operatorID string) (*models.OperationDetail, error) {
	if m.open == nil {
		return nil, sql.ErrNoRows
	}
	return m.open, nil
}

func (m *mockOperationRepo) List(ctx context.Context, operatorID string, filter models.OperationListFilter) ([]models.OperationDetail, error) {
	return m.listed, nil
}

func (m *mockOperationRepo) ListAll(ctx context.Context, filter models.AdminOperationFilter) ([]models.OperationDetail, error) {
	return m.listed, nil
}

type mockOperatorReader struct {
	user *models.User
}

func (m *mockOperatorReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func newOperationService(repo *mockOperationRepo, users *mockOperatorReader) *OperationService {
	return NewOperationService(repo, users, validator.New(), zap.NewNop(), nil)
}

func TestOperationStart(t *testing.T) {
	repo := &mockOperationRepo{detail: &models.OperationDetail{}}
	users := &mockOperatorReader{user: &models.User{ID: "u1", Role: models.RoleOperator}}
	svc := newOperationService(repo, users)

	_, err := svc.Start(context.Background(), "u1", models.StartOperationRequest{
		EquipmentID: "eq-1",
		ActivityID:  "act-1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "u1", repo.created.OperatorID)
	assert.Nil(t, repo.created.EndTime)
	assert.False(t, repo.created.StartTime.IsZero())
}

func TestOperationStartRejectsSecondOpen(t *testing.T) {
	repo := &mockOperationRepo{open: &models.OperationDetail{}}
	users := &mockOperatorReader{user: &models.User{ID: "u1", Role: models.RoleOperator}}
	svc := newOperationService(repo, users)

	_, err := svc.Start(context.Background(), "u1", models.StartOperationRequest{
		EquipmentID: "eq-1",
		ActivityID:  "act-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOpenOperationExists))
	assert.Nil(t, repo.created)
}

func TestOperationStartConflictOnInsert(t *testing.T) {
	// The pre-check saw no open operation, but a concurrent start won the
	// insert. The uniqueness violation surfaces as the same conflict.
	repo := &mockOperationRepo{createErr: appErrors.Clone(appErrors.ErrOpenOperationExists, "")}
	users := &mockOperatorReader{user: &models.User{ID: "u1", Role: models.RoleOperator}}
	svc := newOperationService(repo, users)

	_, err := svc.Start(context.Background(), "u1", models.StartOperationRequest{
		EquipmentID: "eq-1",
		ActivityID:  "act-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOpenOperationExists))
}

func TestOperationStartUnauthorizedEquipment(t *testing.T) {
	repo := &mockOperationRepo{}
	users := &mockOperatorReader{user: &models.User{
		ID:                  "u1",
		Role:                models.RoleOperator,
		AuthorizedEquipment: []string{"eq-2"},
	}}
	svc := newOperationService(repo, users)

	_, err := svc.Start(context.Background(), "u1", models.StartOperationRequest{
		EquipmentID: "eq-1",
		ActivityID:  "act-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrEquipmentNotAuthorized))
}

func TestOperationStartValidation(t *testing.T) {
	repo := &mockOperationRepo{}
	users := &mockOperatorReader{user: &models.User{ID: "u1"}}
	svc := newOperationService(repo, users)

	_, err := svc.Start(context.Background(), "u1", models.StartOperationRequest{EquipmentID: "eq-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOperationStop(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	repo := &mockOperationRepo{
		byID:   &models.Operation{ID: "op-1", OperatorID: "u1", StartTime: start},
		detail: &models.OperationDetail{},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	distance := 12.5
	_, err := svc.Stop(context.Background(), "op-1", "u1", models.StopOperationRequest{Distance: &distance})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	require.NotNil(t, repo.updated.EndTime)
	assert.Equal(t, 12.5, repo.updated.Distance)
}

func TestOperationStopTwice(t *testing.T) {
	end := time.Now()
	repo := &mockOperationRepo{
		byID: &models.Operation{ID: "op-1", OperatorID: "u1", EndTime: &end},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	_, err := svc.Stop(context.Background(), "op-1", "u1", models.StopOperationRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOperationClosed))
}

func TestOperationStopNotOwner(t *testing.T) {
	repo := &mockOperationRepo{
		byID: &models.Operation{ID: "op-1", OperatorID: "u1"},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	_, err := svc.Stop(context.Background(), "op-1", "u2", models.StopOperationRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotOperationOwner))
}

func TestOperationStopNotFound(t *testing.T) {
	svc := newOperationService(&mockOperationRepo{}, &mockOperatorReader{})

	_, err := svc.Stop(context.Background(), "missing", "u1", models.StopOperationRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrOperationNotFound))
}

func TestOperationUpdatePartial(t *testing.T) {
	front := "front-7"
	repo := &mockOperationRepo{
		byID: &models.Operation{
			ID:          "op-1",
			OperatorID:  "u1",
			ActivityID:  "act-1",
			MiningFront: &front,
			Distance:    5,
		},
		detail: &models.OperationDetail{},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	dest := "crusher"
	req := models.UpdateOperationRequest{}
	req.Destination = models.Optional[string]{Set: true, Value: &dest}
	req.MiningFront = models.Optional[string]{Set: true, Value: nil}

	_, err := svc.Update(context.Background(), "op-1", "u1", req)
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	// Absent fields stay untouched, explicit null clears, value overwrites.
	assert.Equal(t, "act-1", repo.updated.ActivityID)
	assert.Equal(t, 5.0, repo.updated.Distance)
	assert.Nil(t, repo.updated.MiningFront)
	require.NotNil(t, repo.updated.Destination)
	assert.Equal(t, "crusher", *repo.updated.Destination)
}

func TestOperationUpdateRejectsClearedActivity(t *testing.T) {
	repo := &mockOperationRepo{
		byID: &models.Operation{ID: "op-1", OperatorID: "u1", ActivityID: "act-1"},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	req := models.UpdateOperationRequest{}
	req.ActivityID = models.Optional[string]{Set: true, Value: nil}

	_, err := svc.Update(context.Background(), "op-1", "u1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOperationUpdateRejectsNegativeDistance(t *testing.T) {
	repo := &mockOperationRepo{
		byID: &models.Operation{ID: "op-1", OperatorID: "u1", ActivityID: "act-1"},
	}
	svc := newOperationService(repo, &mockOperatorReader{})

	negative := -1.0
	req := models.UpdateOperationRequest{}
	req.Distance = models.Optional[float64]{Set: true, Value: &negative}

	_, err := svc.Update(context.Background(), "op-1", "u1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOperationCurrentIdle(t *testing.T) {
	svc := newOperationService(&mockOperationRepo{}, &mockOperatorReader{})

	detail, err := svc.Current(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestOperationGetVisibility(t *testing.T) {
	detail := &models.OperationDetail{}
	detail.OperatorID = "u1"
	repo := &mockOperationRepo{detail: detail}
	svc := newOperationService(repo, &mockOperatorReader{})

	_, err := svc.Get(context.Background(), "op-1", "u1", models.RoleOperator)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "op-1", "admin", models.RoleAdministrator)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "op-1", "u2", models.RoleOperator)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotOperationOwner))
}
