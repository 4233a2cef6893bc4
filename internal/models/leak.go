package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// LeakSeverity classifies how bad a leak is.
type LeakSeverity string

const (
	SeverityLow      LeakSeverity = "low"
	SeverityMedium   LeakSeverity = "medium"
	SeverityHigh     LeakSeverity = "high"
	SeverityCritical LeakSeverity = "critical"
)

// Valid reports whether the severity is a known value.
func (s LeakSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// LeakStatus tracks a leak from report to closure.
type LeakStatus string

const (
	LeakReported   LeakStatus = "reported"
	LeakConfirmed  LeakStatus = "confirmed"
	LeakAssigned   LeakStatus = "assigned"
	LeakInProgress LeakStatus = "in_progress"
	LeakResolved   LeakStatus = "resolved"
	LeakClosed     LeakStatus = "closed"
)

// ReportMethod records how the leak entered the system.
type ReportMethod string

const (
	ReportManual      ReportMethod = "manual"
	ReportIoTSensor   ReportMethod = "iot_sensor"
	ReportSystemAlert ReportMethod = "system_alert"
)

// SensorSnapshot is the reading attached to a sensor-detected leak.
type SensorSnapshot struct {
	SensorID       string    `json:"sensor_id"`
	WaterLevel     *float64  `json:"water_level,omitempty"`
	Pressure       *float64  `json:"pressure,omitempty"`
	Flow           *float64  `json:"flow,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	PH             *float64  `json:"ph,omitempty"`
	LastReading    time.Time `json:"last_reading"`
	AlertThreshold float64   `json:"alert_threshold"`
}

// Value implements driver.Valuer.
func (s SensorSnapshot) Value() (driver.Value, error) { return json.Marshal(s) }

// Scan implements sql.Scanner.
func (s *SensorSnapshot) Scan(src interface{}) error { return scanJSON(src, s) }

// LeakTimelineEntry is one append-only status change on a leak.
type LeakTimelineEntry struct {
	Status    LeakStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Actor     ActorRef   `json:"actor"`
	Notes     string     `json:"notes,omitempty"`
}

// LeakTimeline persists as a JSONB array on the leak row.
type LeakTimeline []LeakTimelineEntry

// Value implements driver.Valuer.
func (t LeakTimeline) Value() (driver.Value, error) { return json.Marshal(t) }

// Scan implements sql.Scanner.
func (t *LeakTimeline) Scan(src interface{}) error { return scanJSON(src, t) }

// WaterShutoff tracks whether supply isolation is needed and done.
type WaterShutoff struct {
	Required    bool       `json:"required"`
	Completed   bool       `json:"completed"`
	Location    string     `json:"location,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Value implements driver.Valuer.
func (w WaterShutoff) Value() (driver.Value, error) { return json.Marshal(w) }

// Scan implements sql.Scanner.
func (w *WaterShutoff) Scan(src interface{}) error { return scanJSON(src, w) }

// Leak is a reported or sensor-detected water-loss event.
type Leak struct {
	ID              string          `db:"id" json:"id"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Severity        LeakSeverity    `db:"severity" json:"severity"`
	Status          LeakStatus      `db:"status" json:"status"`
	Location        Location        `db:"location" json:"location"`
	ReportedBy      string          `db:"reported_by" json:"reported_by"`
	ReportMethod    ReportMethod    `db:"report_method" json:"report_method"`
	SensorData      *SensorSnapshot `db:"sensor_data" json:"sensor_data,omitempty"`
	AssignedService *string         `db:"assigned_service" json:"assigned_service,omitempty"`
	Priority        int             `db:"priority" json:"priority"`
	IsEmergency     bool            `db:"is_emergency" json:"is_emergency"`
	WaterShutoff    WaterShutoff    `db:"water_shutoff" json:"water_shutoff"`
	Timeline        LeakTimeline    `db:"timeline" json:"timeline"`
	ResolvedAt      *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNotes string          `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// LeakFilter narrows leak listings.
type LeakFilter struct {
	Status     LeakStatus
	Severity   LeakSeverity
	ReportedBy string
	ActiveOnly bool
	Page       int
	PageSize   int
}
