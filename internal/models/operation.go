package models

import "time"

// Operation is a single timed unit of equipment work by one operator. It is
// open while EndTime is null; at most one open operation may exist per
// operator at any time.
type Operation struct {
	ID              string     `db:"id" json:"id"`
	EquipmentID     string     `db:"equipment_id" json:"equipment_id"`
	OperatorID      string     `db:"operator_id" json:"operator_id"`
	ActivityID      string     `db:"activity_id" json:"activity_id"`
	MaterialID      *string    `db:"material_id" json:"material_id,omitempty"`
	TruckID         *string    `db:"truck_id" json:"truck_id,omitempty"`
	MiningFront     *string    `db:"mining_front" json:"mining_front,omitempty"`
	Destination     *string    `db:"destination" json:"destination,omitempty"`
	Distance        float64    `db:"distance" json:"distance"`
	ActivityDetails *string    `db:"activity_details" json:"activity_details,omitempty"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         *time.Time `db:"end_time" json:"end_time"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the operation is still running.
func (o *Operation) Open() bool {
	return o.EndTime == nil
}

// Duration returns the elapsed run time, clamped to zero when storage holds
// an inconsistent end before start.
func (o *Operation) Duration(now time.Time) time.Duration {
	end := now
	if o.EndTime != nil {
		end = *o.EndTime
	}
	d := end.Sub(o.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// OperationDetail joins reference display fields onto an operation for API
// output and aggregation.
type OperationDetail struct {
	Operation

	EquipmentName string       `db:"equipment_name" json:"equipment_name"`
	OperatorName  string       `db:"operator_name" json:"operator_name"`
	ActivityName  string       `db:"activity_name" json:"activity_name"`
	ActivityType  ActivityType `db:"activity_type" json:"activity_type"`
	ActivityTrip  bool         `db:"activity_is_trip" json:"activity_is_trip"`
	MaterialName  *string      `db:"material_name" json:"material_name,omitempty"`
	TruckName     *string      `db:"truck_name" json:"truck_name,omitempty"`
}

// StartOperationRequest opens a new operation for the authenticated operator.
type StartOperationRequest struct {
	EquipmentID     string  `json:"equipment" validate:"required"`
	ActivityID      string  `json:"activity" validate:"required"`
	MaterialID      *string `json:"material,omitempty"`
	TruckID         *string `json:"truck_being_loaded,omitempty"`
	MiningFront     *string `json:"mining_front,omitempty"`
	Destination     *string `json:"destination,omitempty"`
	ActivityDetails *string `json:"activity_details,omitempty"`
}

// StopOperationRequest closes an operation, optionally recording distance.
type StopOperationRequest struct {
	Distance *float64 `json:"distance,omitempty" validate:"omitempty,gte=0"`
}

// UpdateOperationRequest mutates non-identity fields of an operation.
// Absent fields are untouched; explicit nulls clear optional fields.
type UpdateOperationRequest struct {
	ActivityID      Optional[string]  `json:"activity"`
	ActivityDetails Optional[string]  `json:"activity_details"`
	MaterialID      Optional[string]  `json:"material"`
	TruckID         Optional[string]  `json:"truck_being_loaded"`
	MiningFront     Optional[string]  `json:"mining_front"`
	Destination     Optional[string]  `json:"destination"`
	Distance        Optional[float64] `json:"distance"`
}

// OperationListFilter narrows an operator's own operation history.
type OperationListFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	EquipmentID string
	ActivityID  string
}

// OperationStatusFilter selects open, closed or all operations.
type OperationStatusFilter string

const (
	OperationStatusAny       OperationStatusFilter = ""
	OperationStatusActive    OperationStatusFilter = "active"
	OperationStatusCompleted OperationStatusFilter = "completed"
)

// AdminOperationFilter narrows the fleet-wide operation listing.
type AdminOperationFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	OperatorID  string
	EquipmentID string
	ActivityID  string
	Status      OperationStatusFilter
}
