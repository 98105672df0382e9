package models

import "time"

// DailyReportRequest scopes the daily report to one calendar day and
// optional operator/equipment filters.
type DailyReportRequest struct {
	Date        time.Time
	OperatorID  string
	EquipmentID string
}

// MaterialMovement counts transport operations per (material, destination).
type MaterialMovement struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// DailyReportSummary carries the single-pass totals of a daily report.
type DailyReportSummary struct {
	TotalOperations  int     `json:"total_operations"`
	TotalTrips       int     `json:"total_trips"`
	TotalDistance    float64 `json:"total_distance"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
}

// DailyReport aggregates the closed operations of one calendar day.
type DailyReport struct {
	Date            time.Time          `json:"date"`
	Summary         DailyReportSummary `json:"summary"`
	TimePerActivity map[string]float64 `json:"time_per_activity"`
	MaterialMoved   []MaterialMovement `json:"material_moved"`
	Operations      []OperationDetail  `json:"operations"`
}

// PerformanceRequest scopes the performance dashboard to a date range. Open
// bounds are allowed.
type PerformanceRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// OperatorPerformance tallies one operator's closed operations.
type OperatorPerformance struct {
	Trips            int     `json:"trips"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
}

// PerformanceDashboard groups closed operations by equipment and operator.
// Keys are display names resolved at output time; grouping happens on ids.
type PerformanceDashboard struct {
	TripsByEquipment map[string]int                 `json:"trips_by_equipment"`
	TimeByEquipment  map[string]float64             `json:"time_by_equipment"`
	Availability     map[string]float64             `json:"availability"`
	OperatorStats    map[string]OperatorPerformance `json:"operator_stats"`
	TotalOperations  int                            `json:"total_operations"`
}

// ExportFormat selects the rendering of the operations export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportRequest scopes the operations export.
type ExportRequest struct {
	StartDate   *time.Time
	EndDate     *time.Time
	OperatorID  string
	EquipmentID string
	Format      ExportFormat
}

// ExportFile is a rendered report ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
