package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
	"github.com/orefleet/opstrack-api/pkg/export"
)

type reportOperationRepository interface {
	ListClosedBetween(ctx context.Context, from, to time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error)
	ListClosedRange(ctx context.Context, from, to *time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error)
}

// ReportServiceConfig tunes report caching and export limits.
type ReportServiceConfig struct {
	CacheTTL      time.Duration
	ExportMaxRows int
	// Location anchors calendar-day windows.
	Location *time.Location
}

// ReportService is the aggregation engine. It groups closed operations into
// daily reports and the performance dashboard, and renders the operations
// export. Grouping happens on entity ids; display names are resolved at
// output time.
type ReportService struct {
	repo   reportOperationRepository
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
	cfg    ReportServiceConfig
}

// NewReportService constructs a ReportService with sane defaults.
func NewReportService(repo reportOperationRepository, cache *CacheService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 10000
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		cfg:    cfg,
	}
}

// Daily aggregates the closed operations of one calendar day. The window is
// half-open on start_time. A day without operations yields zero totals and
// empty collections. The bool result reports cache utilisation.
func (s *ReportService) Daily(ctx context.Context, req models.DailyReportRequest) (*models.DailyReport, bool, error) {
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	from := s.startOfDay(date)
	to := from.Add(24 * time.Hour)

	cacheKey := fmt.Sprintf("report:daily:%s:%s:%s", from.Format("2006-01-02"), req.OperatorID, req.EquipmentID)
	if s.cache != nil {
		var cached models.DailyReport
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	operations, err := s.repo.ListClosedBetween(ctx, from, to, req.OperatorID, req.EquipmentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operations for daily report")
	}

	type activityBucket struct {
		name    string
		minutes float64
	}
	activityTime := make(map[string]*activityBucket)
	materialMoved := make(map[string]*models.MaterialMovement)

	report := &models.DailyReport{
		Date:            from,
		TimePerActivity: map[string]float64{},
		MaterialMoved:   []models.MaterialMovement{},
		Operations:      operations,
	}

	// Single aggregation pass: summary totals are derived alongside the
	// groupings, never recomputed.
	for i := range operations {
		op := &operations[i]
		minutes := op.Duration(*op.EndTime).Minutes()

		bucket, ok := activityTime[op.ActivityID]
		if !ok {
			bucket = &activityBucket{name: op.ActivityName}
			activityTime[op.ActivityID] = bucket
		}
		bucket.minutes += minutes

		if op.ActivityType == models.ActivityTransport && op.MaterialID != nil && op.Destination != nil && *op.Destination != "" {
			key := *op.MaterialID + "|" + *op.Destination
			movement, ok := materialMoved[key]
			if !ok {
				name := ""
				if op.MaterialName != nil {
					name = *op.MaterialName
				}
				movement = &models.MaterialMovement{Name: name, Destination: *op.Destination}
				materialMoved[key] = movement
			}
			movement.Count++
		}

		if op.ActivityTrip {
			report.Summary.TotalTrips++
		}
		report.Summary.TotalDistance += op.Distance
		report.Summary.TotalTimeMinutes += minutes
	}
	report.Summary.TotalOperations = len(operations)

	for _, bucket := range activityTime {
		report.TimePerActivity[bucket.name] += bucket.minutes
	}
	for _, movement := range materialMoved {
		report.MaterialMoved = append(report.MaterialMoved, *movement)
	}

	s.persistCache(ctx, cacheKey, report)
	return report, false, nil
}

// Performance groups closed operations in the date range by equipment and
// operator. Open-ended bounds are allowed.
func (s *ReportService) Performance(ctx context.Context, req models.PerformanceRequest) (*models.PerformanceDashboard, bool, error) {
	var from, to *time.Time
	if req.StartDate != nil {
		f := s.startOfDay(*req.StartDate)
		from = &f
	}
	if req.EndDate != nil {
		t := s.startOfDay(*req.EndDate).Add(24 * time.Hour)
		to = &t
	}

	cacheKey := fmt.Sprintf("report:performance:%s:%s", formatBound(from), formatBound(to))
	if s.cache != nil {
		var cached models.PerformanceDashboard
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	operations, err := s.repo.ListClosedRange(ctx, from, to, "", "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operations for performance dashboard")
	}

	type equipmentBucket struct {
		name  string
		trips int
		hours float64
	}
	type operatorBucket struct {
		name    string
		trips   int
		minutes float64
	}
	byEquipment := make(map[string]*equipmentBucket)
	byOperator := make(map[string]*operatorBucket)

	for i := range operations {
		op := &operations[i]
		duration := op.Duration(*op.EndTime)

		eq, ok := byEquipment[op.EquipmentID]
		if !ok {
			eq = &equipmentBucket{name: op.EquipmentName}
			byEquipment[op.EquipmentID] = eq
		}
		eq.trips++
		eq.hours += duration.Hours()

		operator, ok := byOperator[op.OperatorID]
		if !ok {
			operator = &operatorBucket{name: op.OperatorName}
			byOperator[op.OperatorID] = operator
		}
		operator.trips++
		operator.minutes += duration.Minutes()
	}

	dashboard := &models.PerformanceDashboard{
		TripsByEquipment: map[string]int{},
		TimeByEquipment:  map[string]float64{},
		Availability:     map[string]float64{},
		OperatorStats:    map[string]models.OperatorPerformance{},
		TotalOperations:  len(operations),
	}
	for _, eq := range byEquipment {
		dashboard.TripsByEquipment[eq.name] += eq.trips
		dashboard.TimeByEquipment[eq.name] += eq.hours
	}
	for name, hours := range dashboard.TimeByEquipment {
		// Same-day utilisation proxy: hours worked as a share of 24h.
		dashboard.Availability[name] = math.Round(math.Min(100, hours/24*100)*10) / 10
	}
	for _, operator := range byOperator {
		stats := dashboard.OperatorStats[operator.name]
		stats.Trips += operator.trips
		stats.TotalTimeMinutes += operator.minutes
		dashboard.OperatorStats[operator.name] = stats
	}

	s.persistCache(ctx, cacheKey, dashboard)
	return dashboard, false, nil
}

// Export renders closed operations in the range as a downloadable table.
func (s *ReportService) Export(ctx context.Context, req models.ExportRequest) (*models.ExportFile, error) {
	if req.Format != models.ExportCSV && req.Format != models.ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedExportFormat, "")
	}

	var from, to *time.Time
	if req.StartDate != nil {
		f := s.startOfDay(*req.StartDate)
		from = &f
	}
	if req.EndDate != nil {
		t := s.startOfDay(*req.EndDate).Add(24 * time.Hour)
		to = &t
	}

	operations, err := s.repo.ListClosedRange(ctx, from, to, req.OperatorID, req.EquipmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load operations for export")
	}
	if len(operations) > s.cfg.ExportMaxRows {
		operations = operations[:s.cfg.ExportMaxRows]
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Operator", "Equipment", "Activity", "Material", "Start Time", "End Time", "Duration (min)", "Distance", "Mining Front", "Destination"},
	}
	for i := range operations {
		op := &operations[i]
		start := op.StartTime.In(s.cfg.Location)
		end := op.EndTime.In(s.cfg.Location)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":           start.Format("2006-01-02"),
			"Operator":       op.OperatorName,
			"Equipment":      op.EquipmentName,
			"Activity":       op.ActivityName,
			"Material":       stringOrNA(op.MaterialName),
			"Start Time":     start.Format("2006-01-02 15:04:05"),
			"End Time":       end.Format("2006-01-02 15:04:05"),
			"Duration (min)": strconv.FormatFloat(op.Duration(*op.EndTime).Minutes(), 'f', 2, 64),
			"Distance":       strconv.FormatFloat(op.Distance, 'f', -1, 64),
			"Mining Front":   stringOrNA(op.MiningFront),
			"Destination":    stringOrNA(op.Destination),
		})
	}

	stamp := s.now().Unix()
	switch req.Format {
	case models.ExportPDF:
		content, err := s.pdf.Render(dataset, "Operations Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &models.ExportFile{
			Filename:    fmt.Sprintf("operations-report-%d.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &models.ExportFile{
			Filename:    fmt.Sprintf("operations-report-%d.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
}

func (s *ReportService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReportService) startOfDay(ts time.Time) time.Time {
	local := ts.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func formatBound(ts *time.Time) string {
	if ts == nil {
		return "open"
	}
	return ts.Format("2006-01-02")
}

func stringOrNA(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}
