package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/orefleet/opstrack-api/internal/models"
	appErrors "github.com/orefleet/opstrack-api/pkg/errors"
)

// openOperatorConstraint is the partial unique index enforcing at most one
// open operation per operator at the storage layer.
const openOperatorConstraint = "operations_operator_open_key"

const operationDetailSelect = `SELECT o.id, o.equipment_id, o.operator_id, o.activity_id, o.material_id, o.truck_id,
	o.mining_front, o.destination, o.distance, o.activity_details, o.start_time, o.end_time,
	o.created_at, o.updated_at,
	e.name AS equipment_name, u.full_name AS operator_name,
	a.name AS activity_name, a.activity_type, a.is_trip AS activity_is_trip,
	m.name AS material_name, t.name AS truck_name
FROM operations o
JOIN equipment e ON e.id = o.equipment_id
JOIN users u ON u.id = o.operator_id
JOIN activities a ON a.id = o.activity_id
LEFT JOIN materials m ON m.id = o.material_id
LEFT JOIN equipment t ON t.id = o.truck_id`

// OperationRepository provides database access for operation records.
type OperationRepository struct {
	db *sqlx.DB
}

// NewOperationRepository creates a new instance of OperationRepository.
func NewOperationRepository(db *sqlx.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// IsOpenOperationConflict reports whether the error is the unique-index
// violation raised when a second open operation is inserted for an operator.
func IsOpenOperationConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == openOperatorConstraint
}

// Create inserts a new operation. The losing side of a concurrent start for
// the same operator fails here with a conflict detectable via
// IsOpenOperationConflict.
func (r *OperationRepository) Create(ctx context.Context, op *models.Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now

	const query = `INSERT INTO operations (id, equipment_id, operator_id, activity_id, material_id, truck_id, mining_front, destination, distance, activity_details, start_time, end_time, created_at, updated_at)
		VALUES (:id, :equipment_id, :operator_id, :activity_id, :material_id, :truck_id, :mining_front, :destination, :distance, :activity_details, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		if IsOpenOperationConflict(err) {
			return appErrors.Wrap(err, appErrors.ErrOpenOperationExists.Code, appErrors.ErrOpenOperationExists.Status, appErrors.ErrOpenOperationExists.Message)
		}
		return fmt.Errorf("create operation: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an operation.
func (r *OperationRepository) Update(ctx context.Context, op *models.Operation) error {
	op.UpdatedAt = time.Now().UTC()
	const query = `UPDATE operations SET activity_id = :activity_id, material_id = :material_id, truck_id = :truck_id,
		mining_front = :mining_front, destination = :destination, distance = :distance,
		activity_details = :activity_details, end_time = :end_time, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	return nil
}

// FindByID returns the bare operation row.
func (r *OperationRepository) FindByID(ctx context.Context, id string) (*models.Operation, error) {
	const query = `SELECT id, equipment_id, operator_id, activity_id, material_id, truck_id, mining_front, destination, distance, activity_details, start_time, end_time, created_at, updated_at FROM operations WHERE id = $1 LIMIT 1`
	var op models.Operation
	if err := r.db.GetContext(ctx, &op, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find operation by id: %w", err)
	}
	return &op, nil
}

// FindDetailByID returns the operation joined with reference display fields.
func (r *OperationRepository) FindDetailByID(ctx context.Context, id string) (*models.OperationDetail, error) {
	query := operationDetailSelect + ` WHERE o.id = $1 LIMIT 1`
	var detail models.OperationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find operation detail by id: %w", err)
	}
	return &detail, nil
}

// FindOpenByOperator returns the operator's open operation, if any.
func (r *OperationRepository) FindOpenByOperator(ctx context.Context, operatorID string) (*models.OperationDetail, error) {
	query := operationDetailSelect + ` WHERE o.operator_id = $1 AND o.end_time IS NULL ORDER BY o.start_time DESC LIMIT 1`
	var detail models.OperationDetail
	if err := r.db.GetContext(ctx, &detail, query, operatorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open operation for operator: %w", err)
	}
	return &detail, nil
}

// List returns one operator's operations, newest first.
func (r *OperationRepository) List(ctx context.Context, operatorID string, filter models.OperationListFilter) ([]models.OperationDetail, error) {
	conditions := []string{"o.operator_id = $1"}
	args := []interface{}{operatorID}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.EquipmentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.equipment_id = $%d", len(args)+1))
		args = append(args, filter.EquipmentID)
	}
	if filter.ActivityID != "" {
		conditions = append(conditions, fmt.Sprintf("o.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}

	query := operationDetailSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY o.start_time DESC"
	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query, args...); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return operations, nil
}

// ListAll returns fleet-wide operations matching the admin filter, newest first.
func (r *OperationRepository) ListAll(ctx context.Context, filter models.AdminOperationFilter) ([]models.OperationDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.OperatorID != "" {
		conditions = append(conditions, fmt.Sprintf("o.operator_id = $%d", len(args)+1))
		args = append(args, filter.OperatorID)
	}
	if filter.EquipmentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.equipment_id = $%d", len(args)+1))
		args = append(args, filter.EquipmentID)
	}
	if filter.ActivityID != "" {
		conditions = append(conditions, fmt.Sprintf("o.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}
	switch filter.Status {
	case models.OperationStatusActive:
		conditions = append(conditions, "o.end_time IS NULL")
	case models.OperationStatusCompleted:
		conditions = append(conditions, "o.end_time IS NOT NULL")
	}

	query := operationDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.start_time DESC"

	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query, args...); err != nil {
		return nil, fmt.Errorf("list all operations: %w", err)
	}
	return operations, nil
}

// ListOpen returns every open operation, newest first.
func (r *OperationRepository) ListOpen(ctx context.Context) ([]models.OperationDetail, error) {
	query := operationDetailSelect + ` WHERE o.end_time IS NULL ORDER BY o.start_time DESC`
	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query); err != nil {
		return nil, fmt.Errorf("list open operations: %w", err)
	}
	return operations, nil
}

// ListOpenStartedBefore returns open operations started at or before the
// cutoff, oldest first. The inactivity detector scans this set.
func (r *OperationRepository) ListOpenStartedBefore(ctx context.Context, cutoff time.Time) ([]models.OperationDetail, error) {
	query := operationDetailSelect + ` WHERE o.end_time IS NULL AND o.start_time <= $1 ORDER BY o.start_time ASC`
	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query, cutoff); err != nil {
		return nil, fmt.Errorf("list overdue open operations: %w", err)
	}
	return operations, nil
}

// ListClosedBetween returns closed operations with start_time in the
// half-open window [from, to), oldest first, with optional operator and
// equipment filters. Reports aggregate this set.
func (r *OperationRepository) ListClosedBetween(ctx context.Context, from, to time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error) {
	conditions := []string{"o.end_time IS NOT NULL", "o.start_time >= $1", "o.start_time < $2"}
	args := []interface{}{from, to}

	if operatorID != "" {
		conditions = append(conditions, fmt.Sprintf("o.operator_id = $%d", len(args)+1))
		args = append(args, operatorID)
	}
	if equipmentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.equipment_id = $%d", len(args)+1))
		args = append(args, equipmentID)
	}

	query := operationDetailSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY o.start_time ASC"
	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query, args...); err != nil {
		return nil, fmt.Errorf("list closed operations in window: %w", err)
	}
	return operations, nil
}

// ListClosedRange returns closed operations with optionally bounded
// start_time, newest first. The export and performance dashboard use it.
func (r *OperationRepository) ListClosedRange(ctx context.Context, from, to *time.Time, operatorID, equipmentID string) ([]models.OperationDetail, error) {
	conditions := []string{"o.end_time IS NOT NULL"}
	var args []interface{}

	if from != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_time < $%d", len(args)+1))
		args = append(args, *to)
	}
	if operatorID != "" {
		conditions = append(conditions, fmt.Sprintf("o.operator_id = $%d", len(args)+1))
		args = append(args, operatorID)
	}
	if equipmentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.equipment_id = $%d", len(args)+1))
		args = append(args, equipmentID)
	}

	query := operationDetailSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY o.start_time DESC"
	var operations []models.OperationDetail
	if err := r.db.SelectContext(ctx, &operations, query, args...); err != nil {
		return nil, fmt.Errorf("list closed operations: %w", err)
	}
	return operations, nil
}

// CountOpen counts the currently open operations.
func (r *OperationRepository) CountOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM operations WHERE end_time IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count open operations: %w", err)
	}
	return total, nil
}

// CountOpenStartedBefore counts open operations started at or before the cutoff.
func (r *OperationRepository) CountOpenStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM operations WHERE end_time IS NULL AND start_time <= $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, cutoff); err != nil {
		return 0, fmt.Errorf("count overdue open operations: %w", err)
	}
	return total, nil
}

// CountStartedSince counts operations of any state started at or after ts.
func (r *OperationRepository) CountStartedSince(ctx context.Context, ts time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM operations WHERE start_time >= $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, ts); err != nil {
		return 0, fmt.Errorf("count operations started since: %w", err)
	}
	return total, nil
}

// CountCompletedStartedSince counts closed operations started at or after ts.
func (r *OperationRepository) CountCompletedStartedSince(ctx context.Context, ts time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM operations WHERE start_time >= $1 AND end_time IS NOT NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, ts); err != nil {
		return 0, fmt.Errorf("count completed operations started since: %w", err)
	}
	return total, nil
}

// CountByOperatorStartedSince counts one operator's operations started at or
// after ts, regardless of state.
func (r *OperationRepository) CountByOperatorStartedSince(ctx context.Context, operatorID string, ts time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM operations WHERE operator_id = $1 AND start_time >= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, operatorID, ts); err != nil {
		return 0, fmt.Errorf("count operator operations started since: %w", err)
	}
	return total, nil
}

// CountDistinctOpenOperators counts operators holding an open operation.
func (r *OperationRepository) CountDistinctOpenOperators(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT operator_id) FROM operations WHERE end_time IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count distinct open operators: %w", err)
	}
	return total, nil
}
