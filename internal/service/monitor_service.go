package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

type monitorOperationRepository interface {
	ListOpenStartedBefore(ctx context.Context, cutoff time.Time) ([]models.OperationDetail, error)
	FindOpenByOperator(ctx context.Context, operatorID string) (*models.OperationDetail, error)
	CountOpen(ctx context.Context) (int, error)
	CountOpenStartedBefore(ctx context.Context, cutoff time.Time) (int, error)
	CountStartedSince(ctx context.Context, ts time.Time) (int, error)
	CountCompletedStartedSince(ctx context.Context, ts time.Time) (int, error)
	CountByOperatorStartedSince(ctx context.Context, operatorID string, ts time.Time) (int, error)
	CountDistinctOpenOperators(ctx context.Context) (int, error)
}

type operatorLister interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

// MonitorServiceConfig tunes the detector thresholds.
type MonitorServiceConfig struct {
	// DefaultThreshold applies when the caller supplies no thresholdMinutes.
	DefaultThreshold time.Duration
	// BusyThreshold marks an operator inactive once their open operation
	// runs longer than this.
	BusyThreshold time.Duration
	// Location anchors "today" for daily counters.
	Location *time.Location
}

// MonitorService is the inactivity detector. It scans open operations
// against elapsed-time thresholds and derives advisory operator status.
// All reads are snapshot reads; operations closing mid-scan are tolerated.
type MonitorService struct {
	operations monitorOperationRepository
	users      operatorLister
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        MonitorServiceConfig
}

// NewMonitorService constructs a MonitorService with sane defaults.
func NewMonitorService(operations monitorOperationRepository, users operatorLister, metrics *MetricsService, logger *zap.Logger, cfg MonitorServiceConfig) *MonitorService {
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = 30 * time.Minute
	}
	if cfg.BusyThreshold <= 0 {
		cfg.BusyThreshold = 30 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitorService{
		operations: operations,
		users:      users,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		cfg:        cfg,
	}
}

// InactivityAlerts returns open operations running at least thresholdMinutes,
// most overdue first. The threshold gates inclusion only; severity bands are
// absolute. An operation exactly at the threshold is included.
func (s *MonitorService) InactivityAlerts(ctx context.Context, thresholdMinutes int) (*models.InactivityReport, error) {
	threshold := time.Duration(thresholdMinutes) * time.Minute
	if thresholdMinutes <= 0 {
		threshold = s.cfg.DefaultThreshold
		thresholdMinutes = int(threshold / time.Minute)
	}

	now := s.now()
	cutoff := now.Add(-threshold)

	overdue, err := s.operations.ListOpenStartedBefore(ctx, cutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan open operations")
	}

	alerts := make([]models.InactivityAlert, 0, len(overdue))
	for _, op := range overdue {
		elapsed := op.Duration(now)
		duration := models.NewInactiveDuration(elapsed)
		alerts = append(alerts, models.InactivityAlert{
			Operation:        op,
			InactiveDuration: duration,
			Severity:         models.SeverityForMinutes(duration.Minutes),
		})
	}

	return &models.InactivityReport{
		ThresholdMinutes: thresholdMinutes,
		TotalAlerts:      len(alerts),
		Alerts:           alerts,
	}, nil
}

// OperatorsStatus reports every operator's current state: idle without an
// open operation, active while running one, inactive once it outlives the
// busy threshold.
func (s *MonitorService) OperatorsStatus(ctx context.Context) ([]models.OperatorStatus, error) {
	operators, err := s.users.ListByRole(ctx, models.RoleOperator)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list operators")
	}

	now := s.now()
	midnight := s.localMidnight(now)

	statuses := make([]models.OperatorStatus, 0, len(operators))
	for _, operator := range operators {
		status := models.OperatorStatus{
			Operator: operator.Info(),
			Status:   models.OperatorIdle,
		}

		todayCount, err := s.operations.CountByOperatorStartedSince(ctx, operator.ID, midnight)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's operations")
		}
		status.TodayOperations = todayCount

		open, err := s.operations.FindOpenByOperator(ctx, operator.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch open operation")
		}
		if open != nil {
			status.Status = models.OperatorActive
			status.ActiveOperation = open

			elapsed := open.Duration(now)
			if elapsed > s.cfg.BusyThreshold {
				status.Status = models.OperatorInactive
				duration := models.NewInactiveDuration(elapsed)
				status.InactiveDuration = &duration
			}
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// DashboardStats summarises fleet activity for the admin landing view.
func (s *MonitorService) DashboardStats(ctx context.Context) (*models.AdminDashboardStats, error) {
	now := s.now()
	midnight := s.localMidnight(now)

	active, err := s.operations.CountOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open operations")
	}
	totalOperators, err := s.users.CountByRole(ctx, models.RoleOperator)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count operators")
	}
	activeOperators, err := s.operations.CountDistinctOpenOperators(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active operators")
	}
	operationsToday, err := s.operations.CountStartedSince(ctx, midnight)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's operations")
	}
	completedToday, err := s.operations.CountCompletedStartedSince(ctx, midnight)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed operations")
	}
	overdue, err := s.operations.CountOpenStartedBefore(ctx, now.Add(-s.cfg.DefaultThreshold))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count inactivity alerts")
	}

	if s.metrics != nil {
		s.metrics.SetOpenOperations(active)
	}

	return &models.AdminDashboardStats{
		ActiveOperations: active,
		TotalOperators:   totalOperators,
		ActiveOperators:  activeOperators,
		IdleOperators:    totalOperators - activeOperators,
		OperationsToday:  operationsToday,
		CompletedToday:   completedToday,
		InactivityAlerts: overdue,
		Timestamp:        now,
	}, nil
}

func (s *MonitorService) localMidnight(now time.Time) time.Time {
	local := now.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}
