package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/orefleet/opstrack-api/internal/models"
)

// EquipmentRepository provides read access to the equipment catalog.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository creates a new instance of EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// ListActive returns equipment currently in service.
func (r *EquipmentRepository) ListActive(ctx context.Context) ([]models.Equipment, error) {
	const query = `SELECT id, name, type, registration_number, status, created_at, updated_at FROM equipment WHERE status = $1 ORDER BY name`
	var equipment []models.Equipment
	if err := r.db.SelectContext(ctx, &equipment, query, models.EquipmentActive); err != nil {
		return nil, fmt.Errorf("list active equipment: %w", err)
	}
	return equipment, nil
}

// FindByID returns one equipment entry.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	const query = `SELECT id, name, type, registration_number, status, created_at, updated_at FROM equipment WHERE id = $1 LIMIT 1`
	var equipment models.Equipment
	if err := r.db.GetContext(ctx, &equipment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find equipment by id: %w", err)
	}
	return &equipment, nil
}

// MaterialRepository provides read access to the material catalog.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates a new instance of MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns all materials.
func (r *MaterialRepository) List(ctx context.Context) ([]models.Material, error) {
	const query = `SELECT id, name, category, unit, created_at, updated_at FROM materials ORDER BY name`
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// ActivityRepository provides access to the activity catalog.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, name, activity_type, is_trip, stopped_reasons, waiting_reasons, custom_reasons, created_at, updated_at`

// List returns all activities.
func (r *ActivityRepository) List(ctx context.Context) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY name`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// ListByType returns activities carrying the given type tag.
func (r *ActivityRepository) ListByType(ctx context.Context, activityType models.ActivityType) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE activity_type = $1 ORDER BY name`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, activityType); err != nil {
		return nil, fmt.Errorf("list activities by type: %w", err)
	}
	return activities, nil
}

// FindByID returns one activity entry.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1 LIMIT 1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find activity by id: %w", err)
	}
	return &activity, nil
}

// Create inserts a new activity catalog entry.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now

	const query = `INSERT INTO activities (id, name, activity_type, is_trip, stopped_reasons, waiting_reasons, custom_reasons, created_at, updated_at) VALUES (:id, :name, :activity_type, :is_trip, :stopped_reasons, :waiting_reasons, :custom_reasons, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// AppendCustomReason appends a reason to the activity's open-ended list,
// skipping duplicates at the storage layer.
func (r *ActivityRepository) AppendCustomReason(ctx context.Context, id, reason string) (*models.Activity, error) {
	const query = `UPDATE activities SET custom_reasons = array_append(custom_reasons, $2), updated_at = $3 WHERE id = $1 AND NOT ($2 = ANY(custom_reasons))`
	if _, err := r.db.ExecContext(ctx, query, id, reason, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("append custom reason: %w", err)
	}
	return r.FindByID(ctx, id)
}
