package models

import (
	"fmt"
	"time"
)

// AlertSeverity classifies how overdue an open operation is. Bands are
// absolute: the caller-supplied inclusion threshold never shifts them.
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// SeverityForMinutes maps elapsed whole minutes onto the fixed bands.
func SeverityForMinutes(m int64) AlertSeverity {
	switch {
	case m > 120:
		return SeverityHigh
	case m > 60:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// InactiveDuration describes how long an operation has been running.
type InactiveDuration struct {
	Milliseconds int64  `json:"milliseconds"`
	Minutes      int64  `json:"minutes"`
	Formatted    string `json:"formatted"`
}

// NewInactiveDuration derives the duration views from an elapsed interval.
func NewInactiveDuration(elapsed time.Duration) InactiveDuration {
	minutes := int64(elapsed / time.Minute)
	return InactiveDuration{
		Milliseconds: elapsed.Milliseconds(),
		Minutes:      minutes,
		Formatted:    fmt.Sprintf("%dh %dm", minutes/60, minutes%60),
	}
}

// InactivityAlert flags an open operation exceeding the elapsed threshold.
type InactivityAlert struct {
	Operation        OperationDetail  `json:"operation"`
	InactiveDuration InactiveDuration `json:"inactive_duration"`
	Severity         AlertSeverity    `json:"severity"`
}

// InactivityReport wraps the alert list with the applied threshold.
type InactivityReport struct {
	ThresholdMinutes int               `json:"threshold_minutes"`
	TotalAlerts      int               `json:"total_alerts"`
	Alerts           []InactivityAlert `json:"alerts"`
}

// OperatorActivityState is the advisory status of a single operator.
type OperatorActivityState string

const (
	OperatorIdle     OperatorActivityState = "idle"
	OperatorActive   OperatorActivityState = "active"
	OperatorInactive OperatorActivityState = "inactive"
)

// OperatorStatus reports what an operator is doing right now.
type OperatorStatus struct {
	Operator         UserInfo              `json:"operator"`
	Status           OperatorActivityState `json:"status"`
	ActiveOperation  *OperationDetail      `json:"active_operation"`
	InactiveDuration *InactiveDuration     `json:"inactive_duration,omitempty"`
	TodayOperations  int                   `json:"today_operations"`
}

// AdminDashboardStats summarises fleet activity for the admin landing view.
type AdminDashboardStats struct {
	ActiveOperations int       `json:"active_operations"`
	TotalOperators   int       `json:"total_operators"`
	ActiveOperators  int       `json:"active_operators"`
	IdleOperators    int       `json:"idle_operators"`
	OperationsToday  int       `json:"operations_today"`
	CompletedToday   int       `json:"completed_today"`
	InactivityAlerts int       `json:"inactivity_alerts"`
	Timestamp        time.Time `json:"timestamp"`
}
