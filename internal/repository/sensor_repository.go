package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aquaflow/aquaflow-api/internal/models"
)

const sensorColumns = `id, sensor_id, location, water_level, pressure, flow, temperature, ph,
battery_level, device_status, recorded_at, created_at`

// SensorRepository manages persistence for IoT telemetry.
type SensorRepository struct {
	db *sqlx.DB
}

// NewSensorRepository constructs a new repository.
func NewSensorRepository(db *sqlx.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

// Create inserts one reading.
func (r *SensorRepository) Create(ctx context.Context, reading *models.SensorReading) error {
	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = now
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = now
	}
	query := `INSERT INTO sensor_readings (id, sensor_id, location, water_level, pressure, flow, temperature, ph,
battery_level, device_status, recorded_at, created_at)
VALUES (:id, :sensor_id, :location, :water_level, :pressure, :flow, :temperature, :ph,
:battery_level, :device_status, :recorded_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reading); err != nil {
		return fmt.Errorf("create sensor reading: %w", err)
	}
	return nil
}

// List returns readings per provided filter, newest first.
func (r *SensorRepository) List(ctx context.Context, filter models.SensorFilter) ([]models.SensorReading, int, error) {
	base := "FROM sensor_readings"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.SensorID != "" {
		where = append(where, fmt.Sprintf("sensor_id = $%d", len(args)+1))
		args = append(args, filter.SensorID)
	}
	if filter.Since != nil {
		where = append(where, fmt.Sprintf("recorded_at >= $%d", len(args)+1))
		args = append(args, *filter.Since)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY recorded_at DESC LIMIT %d OFFSET %d`, sensorColumns, base, whereClause, size, offset)
	var readings []models.SensorReading
	if err := r.db.SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sensor readings: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sensor readings: %w", err)
	}
	return readings, total, nil
}

// Latest fetches the newest reading per distinct device.
func (r *SensorRepository) Latest(ctx context.Context) ([]models.SensorReading, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (sensor_id) %s
FROM sensor_readings ORDER BY sensor_id, recorded_at DESC`, sensorColumns)
	var readings []models.SensorReading
	if err := r.db.SelectContext(ctx, &readings, query); err != nil {
		return nil, fmt.Errorf("latest sensor readings: %w", err)
	}
	return readings, nil
}
