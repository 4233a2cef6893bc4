package models

import "time"

// DeviceStatus is the reported health of an IoT device.
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "online"
	DeviceOffline     DeviceStatus = "offline"
	DeviceMaintenance DeviceStatus = "maintenance"
)

// SensorReading is one telemetry sample from a field device.
type SensorReading struct {
	ID           string       `db:"id" json:"id"`
	SensorID     string       `db:"sensor_id" json:"sensor_id"`
	Location     Location     `db:"location" json:"location"`
	WaterLevel   *float64     `db:"water_level" json:"water_level,omitempty"`
	Pressure     *float64     `db:"pressure" json:"pressure,omitempty"`
	Flow         *float64     `db:"flow" json:"flow,omitempty"`
	Temperature  *float64     `db:"temperature" json:"temperature,omitempty"`
	PH           *float64     `db:"ph" json:"ph,omitempty"`
	BatteryLevel *float64     `db:"battery_level" json:"battery_level,omitempty"`
	DeviceStatus DeviceStatus `db:"device_status" json:"device_status"`
	RecordedAt   time.Time    `db:"recorded_at" json:"recorded_at"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// SensorAnalysis is the outcome of evaluating a reading against
// the alerting thresholds.
type SensorAnalysis struct {
	SensorID        string       `json:"sensor_id"`
	Severity        LeakSeverity `json:"severity"`
	LeakDetected    bool         `json:"leak_detected"`
	AlertRequired   bool         `json:"alert_required"`
	AlertThreshold  float64      `json:"alert_threshold"`
	Anomalies       []string     `json:"anomalies"`
	Recommendations []string     `json:"recommendations"`
	LeakID          *string      `json:"leak_id,omitempty"`
	ServiceID       *string      `json:"service_id,omitempty"`
}

// SensorFilter narrows reading listings.
type SensorFilter struct {
	SensorID string
	Since    *time.Time
	Page     int
	PageSize int
}
