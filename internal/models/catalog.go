package models

import (
	"time"

	"github.com/lib/pq"
)

// EquipmentType enumerates the machine classes tracked by the fleet.
type EquipmentType string

const (
	EquipmentExcavator EquipmentType = "excavator"
	EquipmentTruck     EquipmentType = "truck"
	EquipmentDrill     EquipmentType = "drill"
	EquipmentLoader    EquipmentType = "loader"
	EquipmentOther     EquipmentType = "other"
)

// EquipmentStatus enumerates availability states.
type EquipmentStatus string

const (
	EquipmentActive      EquipmentStatus = "active"
	EquipmentInactive    EquipmentStatus = "inactive"
	EquipmentMaintenance EquipmentStatus = "maintenance"
)

// Equipment is a fleet machine catalog entry.
type Equipment struct {
	ID                 string          `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	Type               EquipmentType   `db:"type" json:"type"`
	RegistrationNumber string          `db:"registration_number" json:"registration_number"`
	Status             EquipmentStatus `db:"status" json:"status"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// Material is a bulk material catalog entry.
type Material struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	Unit      string    `db:"unit" json:"unit"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ActivityType tags what kind of work an activity represents. Transport
// activities participate in material-moved grouping.
type ActivityType string

const (
	ActivityTransport   ActivityType = "transport"
	ActivityLoading     ActivityType = "loading"
	ActivityExcavation  ActivityType = "excavation"
	ActivityDrilling    ActivityType = "drilling"
	ActivityMaintenance ActivityType = "maintenance"
	ActivityGeneral     ActivityType = "general"
)

// Activity is a catalog entry naming a type of work.
type Activity struct {
	ID   string       `db:"id" json:"id"`
	Name string       `db:"name" json:"name"`
	Type ActivityType `db:"activity_type" json:"activity_type"`
	// IsTrip marks trip-designating activities for report counting. Decided
	// at catalog-authoring time instead of re-derived from the name.
	IsTrip         bool           `db:"is_trip" json:"is_trip"`
	StoppedReasons pq.StringArray `db:"stopped_reasons" json:"stopped_reasons"`
	WaitingReasons pq.StringArray `db:"waiting_reasons" json:"waiting_reasons"`
	// CustomReasons is operator-appendable; the rest is admin-managed.
	CustomReasons pq.StringArray `db:"custom_reasons" json:"custom_reasons"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateActivityRequest carries a new activity catalog entry.
type CreateActivityRequest struct {
	Name           string       `json:"name" validate:"required,min=2,max=100"`
	Type           ActivityType `json:"activity_type" validate:"required,oneof=transport loading excavation drilling maintenance general"`
	IsTrip         bool         `json:"is_trip"`
	StoppedReasons []string     `json:"stopped_reasons"`
	WaitingReasons []string     `json:"waiting_reasons"`
}

// AppendCustomReasonRequest adds one operator-defined reason to an activity.
type AppendCustomReasonRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=200"`
}
