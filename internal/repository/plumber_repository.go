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

const plumberColumns = `id, name, email, password_hash, phone, business_name, location, service_radius_km,
services, availability, pricing, rating, completed_jobs, avg_response_mins, is_active, is_verified,
verified_at, last_active, version, created_at, updated_at`

// haversineExpr computes great-circle distance in kilometres between the
// query point ($1 latitude, $2 longitude) and the plumber's stored location.
const haversineExpr = `6371 * acos(LEAST(1.0,
        cos(radians($1)) * cos(radians((location->>'latitude')::float8)) *
        cos(radians((location->>'longitude')::float8) - radians($2)) +
        sin(radians($1)) * sin(radians((location->>'latitude')::float8))))`

// PlumberRepository manages persistence for service-provider profiles.
type PlumberRepository struct {
	db *sqlx.DB
}

// NewPlumberRepository constructs a new repository.
func NewPlumberRepository(db *sqlx.DB) *PlumberRepository {
	return &PlumberRepository{db: db}
}

// FindEligible returns active, verified, currently available providers within radiusKm of the
// given point that offer the requested category, ordered nearest first.
// The stored service_radius_km of each provider is honoured as well.
func (r *PlumberRepository) FindEligible(ctx context.Context, loc models.Location, radiusKm float64, serviceType models.ServiceType) ([]models.PlumberSummary, error) {
	query := fmt.Sprintf(`SELECT id, name, business_name, location, services, availability, rating,
completed_jobs, avg_response_mins, distance_km
FROM (
        SELECT id, name, business_name, location, services, availability, rating,
               completed_jobs, avg_response_mins, service_radius_km,
               %s AS distance_km
        FROM plumbers
        WHERE is_active = true
          AND is_verified = true
          AND (availability->>'is_available')::bool = true
          AND services @> $3
) candidates
WHERE distance_km <= $4 AND distance_km <= service_radius_km
ORDER BY distance_km ASC`, haversineExpr)
	serviceJSON := fmt.Sprintf(`["%s"]`, serviceType)
	var candidates []models.PlumberSummary
	if err := r.db.SelectContext(ctx, &candidates, query, loc.Latitude, loc.Longitude, serviceJSON, radiusKm); err != nil {
		return nil, fmt.Errorf("find eligible plumbers: %w", err)
	}
	return candidates, nil
}

// Nearby returns providers within radiusKm regardless of category,
// for the staff proximity view.
func (r *PlumberRepository) Nearby(ctx context.Context, loc models.Location, radiusKm float64) ([]models.PlumberSummary, error) {
	query := fmt.Sprintf(`SELECT id, name, business_name, location, services, availability, rating,
completed_jobs, avg_response_mins, distance_km
FROM (
        SELECT id, name, business_name, location, services, availability, rating,
               completed_jobs, avg_response_mins,
               %s AS distance_km
        FROM plumbers
        WHERE is_active = true AND is_verified = true
) candidates
WHERE distance_km <= $3
ORDER BY distance_km ASC`, haversineExpr)
	var candidates []models.PlumberSummary
	if err := r.db.SelectContext(ctx, &candidates, query, loc.Latitude, loc.Longitude, radiusKm); err != nil {
		return nil, fmt.Errorf("nearby plumbers: %w", err)
	}
	return candidates, nil
}

// List returns plumbers per provided filter plus the total count.
func (r *PlumberRepository) List(ctx context.Context, filter models.PlumberFilter) ([]models.Plumber, int, error) {
	base := "FROM plumbers"
	where := []string{"is_active = true"}
	args := []interface{}{}
	if filter.Verified != nil {
		where = append(where, fmt.Sprintf("is_verified = $%d", len(args)+1))
		args = append(args, *filter.Verified)
	}
	if filter.Available != nil {
		where = append(where, fmt.Sprintf("(availability->>'is_available')::bool = $%d", len(args)+1))
		args = append(args, *filter.Available)
	}
	if filter.Service != "" {
		where = append(where, fmt.Sprintf("services @> $%d", len(args)+1))
		args = append(args, fmt.Sprintf(`["%s"]`, filter.Service))
	}
	if filter.MinRating > 0 {
		where = append(where, fmt.Sprintf("(rating->>'average')::float8 >= $%d", len(args)+1))
		args = append(args, filter.MinRating)
	}
	whereClause := strings.Join(where, " AND ")
	orderBy := "created_at"
	switch filter.SortBy {
	case "rating":
		orderBy = "(rating->>'average')::float8"
	case "completed_jobs":
		orderBy = "completed_jobs"
	case "name":
		orderBy = "name"
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
%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, plumberColumns, base, whereClause, orderBy, direction, size, offset)
	var plumbers []models.Plumber
	if err := r.db.SelectContext(ctx, &plumbers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list plumbers: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count plumbers: %w", err)
	}
	return plumbers, total, nil
}

// GetByID fetches a single profile.
func (r *PlumberRepository) GetByID(ctx context.Context, id string) (*models.Plumber, error) {
	query := fmt.Sprintf("SELECT %s FROM plumbers WHERE id = $1", plumberColumns)
	var plumber models.Plumber
	if err := r.db.GetContext(ctx, &plumber, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get plumber %s: %w", id, err)
	}
	return &plumber, nil
}

// GetByEmail fetches a profile for login.
func (r *PlumberRepository) GetByEmail(ctx context.Context, email string) (*models.Plumber, error) {
	query := fmt.Sprintf("SELECT %s FROM plumbers WHERE email = $1", plumberColumns)
	var plumber models.Plumber
	if err := r.db.GetContext(ctx, &plumber, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get plumber by email: %w", err)
	}
	return &plumber, nil
}

// Create inserts a new profile.
func (r *PlumberRepository) Create(ctx context.Context, plumber *models.Plumber) error {
	if plumber.ID == "" {
		plumber.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plumber.CreatedAt.IsZero() {
		plumber.CreatedAt = now
	}
	plumber.UpdatedAt = now
	plumber.Version = 1
	query := `INSERT INTO plumbers (id, name, email, password_hash, phone, business_name, location, service_radius_km,
services, availability, pricing, rating, completed_jobs, avg_response_mins, is_active, is_verified,
verified_at, last_active, version, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :phone, :business_name, :location, :service_radius_km,
:services, :availability, :pricing, :rating, :completed_jobs, :avg_response_mins, :is_active, :is_verified,
:verified_at, :last_active, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plumber); err != nil {
		return fmt.Errorf("create plumber: %w", err)
	}
	return nil
}

// Update persists the profile only if the caller still holds the current
// version. Stale writes fail with ErrConcurrentModification; callers decide
// whether to re-read, never the repository.
func (r *PlumberRepository) Update(ctx context.Context, plumber *models.Plumber) error {
	plumber.UpdatedAt = time.Now().UTC()
	query := `UPDATE plumbers SET name = :name, phone = :phone, business_name = :business_name,
location = :location, service_radius_km = :service_radius_km, services = :services,
availability = :availability, pricing = :pricing, rating = :rating, completed_jobs = :completed_jobs,
avg_response_mins = :avg_response_mins, is_active = :is_active, is_verified = :is_verified,
verified_at = :verified_at, last_active = :last_active, version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, plumber)
	if err != nil {
		return fmt.Errorf("update plumber: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plumber rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrConcurrentModification
	}
	plumber.Version++
	return nil
}

// Stats aggregates the provider's workload from its service history.
func (r *PlumberRepository) Stats(ctx context.Context, plumberID string) (*models.PlumberStats, error) {
	query := `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN status IN ('verified', 'closed') THEN 1 ELSE 0 END),0) AS completed,
        COALESCE(SUM(CASE WHEN status NOT IN ('verified', 'closed', 'cancelled') THEN 1 ELSE 0 END),0) AS active,
        COALESCE(SUM(CASE WHEN status IN ('verified', 'closed') THEN (pricing->>'total_amount')::numeric ELSE 0 END),0) AS earnings
FROM service_requests
WHERE assigned_plumber = $1`
	var row struct {
		Total     int    `db:"total"`
		Completed int    `db:"completed"`
		Active    int    `db:"active"`
		Earnings  string `db:"earnings"`
	}
	if err := r.db.GetContext(ctx, &row, query, plumberID); err != nil {
		return nil, fmt.Errorf("plumber stats: %w", err)
	}
	stats := &models.PlumberStats{
		TotalServices:     row.Total,
		CompletedServices: row.Completed,
		ActiveServices:    row.Active,
	}
	if row.Total > 0 {
		stats.CompletionRate = row.Completed * 100 / row.Total
	}
	if err := stats.TotalEarnings.UnmarshalText([]byte(row.Earnings)); err != nil {
		return nil, fmt.Errorf("parse plumber earnings: %w", err)
	}
	return stats, nil
}
