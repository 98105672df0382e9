package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orefleet/opstrack-api/internal/middleware"
	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/service"
	"github.com/orefleet/opstrack-api/pkg/response"
)

type operationRepoMock struct {
	open    *models.OperationDetail
	byID    *models.Operation
	detail  *models.OperationDetail
	created *models.Operation
	updated *models.Operation
}

func (m *operationRepoMock) Create(ctx context.Context, op *models.Operation) error {
	op.ID = "op-1"
	m.created = op
	return nil
}

func (m *operationRepoMock) Update(ctx context.Context, op *models.Operation) error {
	m.updated = op
	return nil
}

func (m *operationRepoMock) FindByID(ctx context.Context, id string) (*models.Operation, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *operationRepoMock) FindDetailByID(ctx context.Context, id string) (*models.OperationDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *operationRepoMock) FindOpenByOperator(ctx context.Context, operatorID string) (*models.OperationDetail, error) {
	if m.open == nil {
		return nil, sql.ErrNoRows
	}
	return m.open, nil
}

func (m *operationRepoMock) List(ctx context.Context, operatorID string, filter models.OperationListFilter) ([]models.OperationDetail, error) {
	return nil, nil
}

func (m *operationRepoMock) ListAll(ctx context.Context, filter models.AdminOperationFilter) ([]models.OperationDetail, error) {
	return nil, nil
}

type operatorReaderMock struct {
	user *models.User
}

func (m *operatorReaderMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func operatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", Role: models.RoleOperator}
}

func newOperationTestHandler(repo *operationRepoMock, users *operatorReaderMock) *OperationHandler {
	svc := service.NewOperationService(repo, users, nil, nil, nil)
	return NewOperationHandler(svc)
}

func TestOperationHandlerStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &operationRepoMock{detail: &models.OperationDetail{}}
	handler := newOperationTestHandler(repo, &operatorReaderMock{user: &models.User{ID: "u1"}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := bytes.NewBufferString(`{"equipment":"eq-1","activity":"act-1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/operations/start", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Start(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "u1", repo.created.OperatorID)
}

func TestOperationHandlerStartConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &operationRepoMock{open: &models.OperationDetail{}}
	handler := newOperationTestHandler(repo, &operatorReaderMock{user: &models.User{ID: "u1"}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := bytes.NewBufferString(`{"equipment":"eq-1","activity":"act-1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/operations/start", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Start(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}

func TestOperationHandlerStopAlreadyClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	end := time.Now()
	repo := &operationRepoMock{byID: &models.Operation{ID: "op-1", OperatorID: "u1", EndTime: &end}}
	handler := newOperationTestHandler(repo, &operatorReaderMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/operations/op-1/stop", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "op-1"}}
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Stop(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestOperationHandlerCurrentIdle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newOperationTestHandler(&operationRepoMock{}, &operatorReaderMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/operations/current", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Current(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data)
}

func TestOperationHandlerUpdateClearsField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	front := "front-7"
	repo := &operationRepoMock{
		byID:   &models.Operation{ID: "op-1", OperatorID: "u1", ActivityID: "act-1", MiningFront: &front},
		detail: &models.OperationDetail{},
	}
	handler := newOperationTestHandler(repo, &operatorReaderMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := bytes.NewBufferString(`{"mining_front":null,"destination":"crusher"}`)
	req, _ := http.NewRequest(http.MethodPut, "/operations/op-1", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "op-1"}}
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.updated)
	assert.Nil(t, repo.updated.MiningFront)
	require.NotNil(t, repo.updated.Destination)
	assert.Equal(t, "crusher", *repo.updated.Destination)
}

func TestOperationHandlerListRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newOperationTestHandler(&operationRepoMock{}, &operatorReaderMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/operations?startDate=10-03-2025", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
