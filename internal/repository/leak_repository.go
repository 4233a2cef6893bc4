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

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

const leakColumns = `id, title, description, severity, status, location, reported_by, report_method,
sensor_data, assigned_service, priority, is_emergency, water_shutoff, timeline, resolved_at,
resolution_notes, created_at, updated_at`

// LeakRepository manages persistence for leak reports.
type LeakRepository struct {
	db *sqlx.DB
}

// NewLeakRepository constructs a new repository.
func NewLeakRepository(db *sqlx.DB) *LeakRepository {
	return &LeakRepository{db: db}
}

// List returns leaks per provided filter plus the unfiltered total.
func (r *LeakRepository) List(ctx context.Context, filter models.LeakFilter) ([]models.Leak, int, error) {
	base := "FROM leaks"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Severity != "" {
		where = append(where, fmt.Sprintf("severity = $%d", len(args)+1))
		args = append(args, filter.Severity)
	}
	if filter.ReportedBy != "" {
		where = append(where, fmt.Sprintf("reported_by = $%d", len(args)+1))
		args = append(args, filter.ReportedBy)
	}
	if filter.ActiveOnly {
		where = append(where, "status NOT IN ('resolved', 'closed')")
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY priority DESC, created_at DESC LIMIT %d OFFSET %d`, leakColumns, base, whereClause, size, offset)
	var leaks []models.Leak
	if err := r.db.SelectContext(ctx, &leaks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaks: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaks: %w", err)
	}
	return leaks, total, nil
}

// GetByID fetches a single leak.
func (r *LeakRepository) GetByID(ctx context.Context, id string) (*models.Leak, error) {
	query := fmt.Sprintf("SELECT %s FROM leaks WHERE id = $1", leakColumns)
	var leak models.Leak
	if err := r.db.GetContext(ctx, &leak, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get leak %s: %w", id, err)
	}
	return &leak, nil
}

// Create inserts a new leak report.
func (r *LeakRepository) Create(ctx context.Context, leak *models.Leak) error {
	if leak.ID == "" {
		leak.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leak.CreatedAt.IsZero() {
		leak.CreatedAt = now
	}
	leak.UpdatedAt = now
	query := `INSERT INTO leaks (id, title, description, severity, status, location, reported_by, report_method,
sensor_data, assigned_service, priority, is_emergency, water_shutoff, timeline, resolved_at, resolution_notes, created_at, updated_at)
VALUES (:id, :title, :description, :severity, :status, :location, :reported_by, :report_method,
:sensor_data, :assigned_service, :priority, :is_emergency, :water_shutoff, :timeline, :resolved_at, :resolution_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leak); err != nil {
		return fmt.Errorf("create leak: %w", err)
	}
	return nil
}

// Update modifies an existing leak.
func (r *LeakRepository) Update(ctx context.Context, leak *models.Leak) error {
	leak.UpdatedAt = time.Now().UTC()
	query := `UPDATE leaks SET title = :title, description = :description, severity = :severity, status = :status,
location = :location, sensor_data = :sensor_data, assigned_service = :assigned_service, priority = :priority,
is_emergency = :is_emergency, water_shutoff = :water_shutoff, timeline = :timeline, resolved_at = :resolved_at,
resolution_notes = :resolution_notes, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, leak)
	if err != nil {
		return fmt.Errorf("update leak: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leak rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// Delete removes a leak report.
func (r *LeakRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM leaks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete leak: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete leak rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// Stats aggregates leak counters for dashboards.
func (r *LeakRepository) Stats(ctx context.Context) (map[string]int, error) {
	query := `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN status NOT IN ('resolved', 'closed') THEN 1 ELSE 0 END),0) AS active,
        COALESCE(SUM(CASE WHEN severity = 'critical' THEN 1 ELSE 0 END),0) AS critical,
        COALESCE(SUM(CASE WHEN is_emergency THEN 1 ELSE 0 END),0) AS emergency,
        COALESCE(SUM(CASE WHEN status = 'resolved' THEN 1 ELSE 0 END),0) AS resolved
FROM leaks`
	var stats struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Critical  int `db:"critical"`
		Emergency int `db:"emergency"`
		Resolved  int `db:"resolved"`
	}
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("leak stats: %w", err)
	}
	return map[string]int{
		"total":     stats.Total,
		"active":    stats.Active,
		"critical":  stats.Critical,
		"emergency": stats.Emergency,
		"resolved":  stats.Resolved,
	}, nil
}
