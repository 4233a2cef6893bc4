package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

const serviceRequestColumns = `id, request_id, leak_id, requested_by, assigned_plumber, status, service_type,
priority, location, scheduled_date, plumber_response, work_details, pricing, timeline, communication,
payment, verification, nearby_candidates, cancellation, version, created_at, updated_at`

// ServiceRequestRepository manages persistence for dispatch work orders.
type ServiceRequestRepository struct {
	db *sqlx.DB
}

// NewServiceRequestRepository constructs a new repository.
func NewServiceRequestRepository(db *sqlx.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

// newRequestID builds the human-readable reference stamped on a request
// exactly once, at insert time.
func newRequestID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return strings.ToUpper(fmt.Sprintf("SR-%s-%s", strconv.FormatInt(now.Unix(), 36), suffix))
}

// List returns service requests per provided filter plus the total count.
func (r *ServiceRequestRepository) List(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, int, error) {
	base := "FROM service_requests"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		where = append(where, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.ServiceType != "" {
		where = append(where, fmt.Sprintf("service_type = $%d", len(args)+1))
		args = append(args, filter.ServiceType)
	}
	if filter.AssignedPlumber != "" {
		where = append(where, fmt.Sprintf("assigned_plumber = $%d", len(args)+1))
		args = append(args, filter.AssignedPlumber)
	}
	if filter.RequestedBy != "" {
		where = append(where, fmt.Sprintf("requested_by = $%d", len(args)+1))
		args = append(args, filter.RequestedBy)
	}
	whereClause := strings.Join(where, " AND ")
	orderBy := "created_at"
	switch filter.SortBy {
	case "priority":
		orderBy = `CASE priority WHEN 'emergency' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`
	case "status":
		orderBy = "status"
	case "updated_at":
		orderBy = "updated_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}
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
%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, serviceRequestColumns, base, whereClause, orderBy, direction, size, offset)
	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list service requests: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count service requests: %w", err)
	}
	return requests, total, nil
}

// GetByID fetches a single work order.
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM service_requests WHERE id = $1", serviceRequestColumns)
	var request models.ServiceRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get service request %s: %w", id, err)
	}
	return &request, nil
}

// GetByLeakID fetches the work order attached to a leak, if any.
func (r *ServiceRequestRepository) GetByLeakID(ctx context.Context, leakID string) (*models.ServiceRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM service_requests WHERE leak_id = $1 ORDER BY created_at DESC LIMIT 1", serviceRequestColumns)
	var request models.ServiceRequest
	if err := r.db.GetContext(ctx, &request, query, leakID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get service request for leak %s: %w", leakID, err)
	}
	return &request, nil
}

// Create inserts a new work order and stamps its reference number.
func (r *ServiceRequestRepository) Create(ctx context.Context, request *models.ServiceRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.RequestID == "" {
		request.RequestID = newRequestID(now)
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	request.Version = 1
	query := `INSERT INTO service_requests (id, request_id, leak_id, requested_by, assigned_plumber, status, service_type,
priority, location, scheduled_date, plumber_response, work_details, pricing, timeline, communication,
payment, verification, nearby_candidates, cancellation, version, created_at, updated_at)
VALUES (:id, :request_id, :leak_id, :requested_by, :assigned_plumber, :status, :service_type,
:priority, :location, :scheduled_date, :plumber_response, :work_details, :pricing, :timeline, :communication,
:payment, :verification, :nearby_candidates, :cancellation, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create service request: %w", err)
	}
	return nil
}

// Update persists the work order only if the caller still holds the current
// version. A stale write returns ErrConcurrentModification without retrying.
func (r *ServiceRequestRepository) Update(ctx context.Context, request *models.ServiceRequest) error {
	request.UpdatedAt = time.Now().UTC()
	query := `UPDATE service_requests SET assigned_plumber = :assigned_plumber, status = :status,
service_type = :service_type, priority = :priority, location = :location, scheduled_date = :scheduled_date,
plumber_response = :plumber_response, work_details = :work_details, pricing = :pricing, timeline = :timeline,
communication = :communication, payment = :payment, verification = :verification,
nearby_candidates = :nearby_candidates, cancellation = :cancellation, version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update service request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update service request rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrConcurrentModification
	}
	request.Version++
	return nil
}

// Stats aggregates workflow counters for dashboards.
func (r *ServiceRequestRepository) Stats(ctx context.Context) (*models.ServiceStats, error) {
	query := `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN status NOT IN ('verified', 'closed', 'cancelled') THEN 1 ELSE 0 END),0) AS active,
        COALESCE(SUM(CASE WHEN status IN ('verified', 'closed') THEN 1 ELSE 0 END),0) AS completed,
        COALESCE(SUM(CASE WHEN priority = 'emergency' THEN 1 ELSE 0 END),0) AS emergency
FROM service_requests`
	var row struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Completed int `db:"completed"`
		Emergency int `db:"emergency"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("service request stats: %w", err)
	}
	stats := &models.ServiceStats{
		TotalRequests:     row.Total,
		ActiveRequests:    row.Active,
		CompletedRequests: row.Completed,
		EmergencyRequests: row.Emergency,
	}
	if row.Total > 0 {
		stats.CompletionRate = row.Completed * 100 / row.Total
	}
	return stats, nil
}
