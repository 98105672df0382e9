package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
)

type mockReportRepo struct {
	operations []models.OperationDetail
	lastFrom   time.Time
	lastTo     time.Time
}

func (m *mockReportRepo) ListClosedBetween(ctx context.Context, from, to time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error) {
	m.lastFrom = from
	m.lastTo = to
	return m.operations, nil
}

func (m *mockReportRepo) ListClosedRange(ctx context.Context, from, to *time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error) {
	return m.operations, nil
}

func closedOperation(id, operatorID, operatorName, equipmentID, equipmentName string, start time.Time, minutes int) models.OperationDetail {
	end := start.Add(time.Duration(minutes) * time.Minute)
	detail := models.OperationDetail{}
	detail.ID = id
	detail.OperatorID = operatorID
	detail.OperatorName = operatorName
	detail.EquipmentID = equipmentID
	detail.EquipmentName = equipmentName
	detail.StartTime = start
	detail.EndTime = &end
	return detail
}

func newReportService(repo *mockReportRepo) *ReportService {
	return NewReportService(repo, nil, zap.NewNop(), ReportServiceConfig{
		Location: time.UTC,
	})
}

func TestDailyReportWindow(t *testing.T) {
	repo := &mockReportRepo{}
	svc := newReportService(repo)

	date := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	_, cached, err := svc.Daily(context.Background(), models.DailyReportRequest{Date: date})
	require.NoError(t, err)
	assert.False(t, cached)
	// Half-open day window anchored at local midnight.
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), repo.lastFrom)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), repo.lastTo)
}

func TestDailyReportEmptyDay(t *testing.T) {
	svc := newReportService(&mockReportRepo{})

	report, _, err := svc.Daily(context.Background(), models.DailyReportRequest{
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.TotalOperations)
	assert.Equal(t, 0, report.Summary.TotalTrips)
	assert.Zero(t, report.Summary.TotalDistance)
	assert.Zero(t, report.Summary.TotalTimeMinutes)
	assert.Empty(t, report.TimePerActivity)
	assert.Empty(t, report.MaterialMoved)
	assert.Empty(t, report.Operations)
}

func TestDailyReportAggregation(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	transport1 := closedOperation("op-1", "u1", "Ana", "eq-1", "Truck 1", start, 30)
	transport1.ActivityID = "act-trip"
	transport1.ActivityName = "Trip to destination"
	transport1.ActivityType = models.ActivityTransport
	transport1.ActivityTrip = true
	material := "mat-1"
	materialName := "Iron ore"
	dest := "crusher"
	transport1.MaterialID = &material
	transport1.MaterialName = &materialName
	transport1.Destination = &dest
	transport1.Distance = 4

	transport2 := closedOperation("op-2", "u1", "Ana", "eq-1", "Truck 1", start.Add(time.Hour), 45)
	transport2.ActivityID = "act-trip"
	transport2.ActivityName = "Trip to destination"
	transport2.ActivityType = models.ActivityTransport
	transport2.ActivityTrip = true
	transport2.MaterialID = &material
	transport2.MaterialName = &materialName
	transport2.Destination = &dest
	transport2.Distance = 4

	loading := closedOperation("op-3", "u2", "Bruno", "eq-2", "Excavator 1", start, 60)
	loading.ActivityID = "act-load"
	loading.ActivityName = "Loading"
	loading.ActivityType = models.ActivityLoading

	// Transport without a destination never counts as moved material.
	partial := closedOperation("op-4", "u2", "Bruno", "eq-1", "Truck 1", start, 15)
	partial.ActivityID = "act-trip"
	partial.ActivityName = "Trip to destination"
	partial.ActivityType = models.ActivityTransport
	partial.ActivityTrip = true
	partial.MaterialID = &material

	repo := &mockReportRepo{operations: []models.OperationDetail{transport1, transport2, loading, partial}}
	svc := newReportService(repo)

	report, _, err := svc.Daily(context.Background(), models.DailyReportRequest{
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.TotalOperations)
	assert.Equal(t, 3, report.Summary.TotalTrips)
	assert.Equal(t, 8.0, report.Summary.TotalDistance)
	assert.Equal(t, 150.0, report.Summary.TotalTimeMinutes)

	assert.Equal(t, 90.0, report.TimePerActivity["Trip to destination"])
	assert.Equal(t, 60.0, report.TimePerActivity["Loading"])

	require.Len(t, report.MaterialMoved, 1)
	assert.Equal(t, "Iron ore", report.MaterialMoved[0].Name)
	assert.Equal(t, "crusher", report.MaterialMoved[0].Destination)
	assert.Equal(t, 2, report.MaterialMoved[0].Count)
}

func TestDailyReportClampsInvertedDurations(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	inverted := closedOperation("op-1", "u1", "Ana", "eq-1", "Truck 1", start, 0)
	before := start.Add(-10 * time.Minute)
	inverted.EndTime = &before
	inverted.ActivityID = "act-load"
	inverted.ActivityName = "Loading"

	repo := &mockReportRepo{operations: []models.OperationDetail{inverted}}
	svc := newReportService(repo)

	report, _, err := svc.Daily(context.Background(), models.DailyReportRequest{Date: start})
	require.NoError(t, err)
	assert.Zero(t, report.Summary.TotalTimeMinutes)
	assert.Zero(t, report.TimePerActivity["Loading"])
}

func TestPerformanceDashboard(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

	op1 := closedOperation("op-1", "u1", "Ana", "eq-1", "Truck 1", start, 360)
	op2 := closedOperation("op-2", "u1", "Ana", "eq-1", "Truck 1", start.Add(7*time.Hour), 180)
	op3 := closedOperation("op-3", "u2", "Bruno", "eq-2", "Excavator 1", start, 60)

	repo := &mockReportRepo{operations: []models.OperationDetail{op1, op2, op3}}
	svc := newReportService(repo)

	dashboard, cached, err := svc.Performance(context.Background(), models.PerformanceRequest{})
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, 3, dashboard.TotalOperations)
	assert.Equal(t, 2, dashboard.TripsByEquipment["Truck 1"])
	assert.Equal(t, 1, dashboard.TripsByEquipment["Excavator 1"])
	assert.Equal(t, 9.0, dashboard.TimeByEquipment["Truck 1"])
	assert.Equal(t, 1.0, dashboard.TimeByEquipment["Excavator 1"])

	// hours / 24 * 100, one decimal.
	assert.Equal(t, 37.5, dashboard.Availability["Truck 1"])
	assert.Equal(t, 4.2, dashboard.Availability["Excavator 1"])

	ana := dashboard.OperatorStats["Ana"]
	assert.Equal(t, 2, ana.Trips)
	assert.Equal(t, 540.0, ana.TotalTimeMinutes)
	bruno := dashboard.OperatorStats["Bruno"]
	assert.Equal(t, 1, bruno.Trips)
	assert.Equal(t, 60.0, bruno.TotalTimeMinutes)
}

func TestPerformanceAvailabilityCap(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	long := closedOperation("op-1", "u1", "Ana", "eq-1", "Truck 1", start, 26*60)

	repo := &mockReportRepo{operations: []models.OperationDetail{long}}
	svc := newReportService(repo)

	dashboard, _, err := svc.Performance(context.Background(), models.PerformanceRequest{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, dashboard.Availability["Truck 1"])
}

func TestExportCSV(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	op := closedOperation("op-1", "u1", "Ana", "eq-1", "Truck 1", start, 30)
	op.ActivityName = "Loading"
	op.Distance = 3.5

	repo := &mockReportRepo{operations: []models.OperationDetail{op}}
	svc := newReportService(repo)

	file, err := svc.Export(context.Background(), models.ExportRequest{Format: models.ExportCSV})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Content)
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "Truck 1")
	assert.Contains(t, body, "Loading")
	assert.Contains(t, body, "30.00")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newReportService(&mockReportRepo{})

	_, err := svc.Export(context.Background(), models.ExportRequest{Format: "xlsx"})
	require.Error(t, err)
}

func TestExportRowCap(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{}
	for i := 0; i < 5; i++ {
		repo.operations = append(repo.operations, closedOperation("op", "u1", "Ana", "eq-1", "Truck 1", start, 10))
	}
	svc := NewReportService(repo, nil, zap.NewNop(), ReportServiceConfig{
		ExportMaxRows: 3,
		Location:      time.UTC,
	})

	file, err := svc.Export(context.Background(), models.ExportRequest{Format: models.ExportCSV})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	// Header plus capped rows.
	assert.Len(t, lines, 4)
}
