package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type sensorStore interface {
	Create(ctx context.Context, reading *models.SensorReading) error
	List(ctx context.Context, filter models.SensorFilter) ([]models.SensorReading, int, error)
	Latest(ctx context.Context) ([]models.SensorReading, error)
}

type leakWriter interface {
	Create(ctx context.Context, leak *models.Leak) error
	Update(ctx context.Context, leak *models.Leak) error
}

type dispatchOpener interface {
	Create(ctx context.Context, request *models.ServiceRequest) error
}

// IngestReadingRequest is one telemetry push from a device.
type IngestReadingRequest struct {
	SensorID     string              `json:"sensor_id" validate:"required"`
	Location     models.Location     `json:"location" validate:"required"`
	WaterLevel   *float64            `json:"water_level"`
	Pressure     *float64            `json:"pressure"`
	Flow         *float64            `json:"flow"`
	Temperature  *float64            `json:"temperature"`
	PH           *float64            `json:"ph"`
	BatteryLevel *float64            `json:"battery_level"`
	DeviceStatus models.DeviceStatus `json:"device_status"`
	RecordedAt   *time.Time          `json:"recorded_at"`
}

// SensorService ingests telemetry, evaluates it against the alerting
// thresholds, and opens an emergency dispatch when a reading crosses
// into critical territory.
type SensorService struct {
	readings  sensorStore
	leaks     leakWriter
	dispatch  dispatchOpener
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSensorService constructs SensorService.
func NewSensorService(readings sensorStore, leaks leakWriter, dispatch dispatchOpener, validate *validator.Validate, logger *zap.Logger) *SensorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SensorService{readings: readings, leaks: leaks, dispatch: dispatch, validator: validate, logger: logger}
}

// WithMetrics attaches the metrics service and returns the receiver.
func (s *SensorService) WithMetrics(metrics *MetricsService) *SensorService {
	s.metrics = metrics
	return s
}

// Ingest stores the reading and returns the analysis. A critical reading
// also files a sensor-detected leak and an emergency service request.
func (s *SensorService) Ingest(ctx context.Context, req IngestReadingRequest) (*models.SensorAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sensor payload")
	}
	if !req.Location.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
	}

	now := time.Now().UTC()
	recordedAt := now
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}
	deviceStatus := req.DeviceStatus
	if deviceStatus == "" {
		deviceStatus = models.DeviceOnline
	}
	reading := &models.SensorReading{
		SensorID:     req.SensorID,
		Location:     req.Location,
		WaterLevel:   req.WaterLevel,
		Pressure:     req.Pressure,
		Flow:         req.Flow,
		Temperature:  req.Temperature,
		PH:           req.PH,
		BatteryLevel: req.BatteryLevel,
		DeviceStatus: deviceStatus,
		RecordedAt:   recordedAt,
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store sensor reading")
	}

	analysis := Analyze(reading)
	if analysis.Severity == models.SeverityCritical {
		s.autoDispatch(ctx, reading, analysis)
	}
	if analysis.AlertRequired {
		s.metrics.ObserveSensorAlert(analysis.Severity)
		s.logger.Warn("sensor alert",
			zap.String("sensor_id", reading.SensorID),
			zap.String("severity", string(analysis.Severity)),
			zap.Strings("anomalies", analysis.Anomalies))
	}
	return analysis, nil
}

// List returns stored readings with pagination metadata.
func (s *SensorService) List(ctx context.Context, filter models.SensorFilter) ([]models.SensorReading, *models.Pagination, error) {
	readings, total, err := s.readings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sensor readings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return readings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Latest returns the newest reading per device.
func (s *SensorService) Latest(ctx context.Context) ([]models.SensorReading, error) {
	readings, err := s.readings.Latest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device status")
	}
	return readings, nil
}

// autoDispatch files the sensor-detected leak and opens an emergency
// work order already in candidate search.
func (s *SensorService) autoDispatch(ctx context.Context, reading *models.SensorReading, analysis *models.SensorAnalysis) {
	now := time.Now().UTC()
	actor := models.ActorRef{Kind: models.ActorStaff, ID: "system", Role: models.RoleStaff}
	leak := &models.Leak{
		Title:        fmt.Sprintf("Sensor %s critical alert", reading.SensorID),
		Description:  fmt.Sprintf("Automated detection: %v", analysis.Anomalies),
		Severity:     models.SeverityCritical,
		Status:       models.LeakReported,
		Location:     reading.Location,
		ReportedBy:   "system",
		ReportMethod: models.ReportIoTSensor,
		IsEmergency:  true,
		SensorData: &models.SensorSnapshot{
			SensorID:       reading.SensorID,
			WaterLevel:     reading.WaterLevel,
			Pressure:       reading.Pressure,
			Flow:           reading.Flow,
			Temperature:    reading.Temperature,
			PH:             reading.PH,
			LastReading:    reading.RecordedAt,
			AlertThreshold: analysis.AlertThreshold,
		},
		Timeline: models.LeakTimeline{{
			Status:    models.LeakReported,
			Timestamp: now,
			Actor:     actor,
			Notes:     "detected by sensor",
		}},
		CreatedAt: now,
	}
	leak.Priority = CalculatePriority(leak, now)
	if err := s.leaks.Create(ctx, leak); err != nil {
		s.logger.Error("failed to file sensor-detected leak",
			zap.String("sensor_id", reading.SensorID), zap.Error(err))
		return
	}
	analysis.LeakID = &leak.ID

	request := &models.ServiceRequest{
		LeakID:      leak.ID,
		RequestedBy: "system",
		Status:      models.StatusPlumberSearch,
		ServiceType: models.ServiceEmergency,
		Priority:    models.PriorityEmergency,
		Location:    leak.Location,
		Timeline: models.Timeline{{
			Status:    models.StatusPlumberSearch,
			Timestamp: now,
			Actor:     actor,
			Notes:     "auto-dispatched from sensor alert",
		}},
		Payment: models.PaymentRecord{Status: models.PaymentPending},
	}
	if err := s.dispatch.Create(ctx, request); err != nil {
		s.logger.Error("failed to open emergency dispatch",
			zap.String("leak_id", leak.ID), zap.Error(err))
		return
	}
	analysis.ServiceID = &request.ID

	leak.Status = models.LeakAssigned
	leak.AssignedService = &request.ID
	leak.Timeline = append(leak.Timeline, models.LeakTimelineEntry{
		Status:    models.LeakAssigned,
		Timestamp: now,
		Actor:     actor,
		Notes:     "emergency dispatch opened",
	})
	if err := s.leaks.Update(ctx, leak); err != nil {
		s.logger.Warn("failed to link sensor leak to dispatch",
			zap.String("leak_id", leak.ID), zap.Error(err))
	}
}

// Analyze evaluates one reading against the alerting thresholds.
func Analyze(reading *models.SensorReading) *models.SensorAnalysis {
	analysis := &models.SensorAnalysis{
		SensorID:        reading.SensorID,
		Severity:        models.SeverityLow,
		Anomalies:       []string{},
		Recommendations: []string{},
	}
	escalate := func(sev models.LeakSeverity) {
		if severityRank(sev) > severityRank(analysis.Severity) {
			analysis.Severity = sev
		}
	}

	if reading.WaterLevel != nil {
		level := *reading.WaterLevel
		switch {
		case level > 90:
			analysis.Anomalies = append(analysis.Anomalies, "water level critically high")
			escalate(models.SeverityCritical)
		case level > 70:
			analysis.Anomalies = append(analysis.Anomalies, "water level high")
			escalate(models.SeverityHigh)
		case level > 50:
			analysis.Anomalies = append(analysis.Anomalies, "water level elevated")
			escalate(models.SeverityMedium)
		}
	}
	if reading.Flow != nil {
		flow := *reading.Flow
		switch {
		case flow > 150:
			analysis.Anomalies = append(analysis.Anomalies, "flow rate far above normal")
			escalate(models.SeverityHigh)
		case flow > 100:
			analysis.Anomalies = append(analysis.Anomalies, "flow rate above normal")
			escalate(models.SeverityMedium)
		case flow > 0 && flow < 5:
			analysis.Recommendations = append(analysis.Recommendations, "flow near zero, check for blockage or closed valve")
		}
	}
	if reading.Pressure != nil {
		pressure := *reading.Pressure
		if pressure < 20 {
			analysis.Anomalies = append(analysis.Anomalies, "pressure drop suggests a leak")
			escalate(models.SeverityMedium)
		} else if pressure > 80 {
			analysis.Recommendations = append(analysis.Recommendations, "pressure high, inspect the regulator")
		}
	}
	if reading.Temperature != nil {
		temp := *reading.Temperature
		if temp < 5 {
			analysis.Anomalies = append(analysis.Anomalies, "temperature near freezing, pipes at risk")
			escalate(models.SeverityMedium)
		} else if temp > 60 {
			analysis.Recommendations = append(analysis.Recommendations, "water temperature unusually high")
		}
	}
	if reading.PH != nil {
		ph := *reading.PH
		if ph < 6.5 || ph > 8.5 {
			analysis.Recommendations = append(analysis.Recommendations, "pH outside the 6.5-8.5 range, schedule a water quality check")
		}
	}

	analysis.LeakDetected = len(analysis.Anomalies) > 0
	analysis.AlertRequired = severityRank(analysis.Severity) >= severityRank(models.SeverityHigh)
	analysis.AlertThreshold = alertThreshold(analysis.Severity)
	return analysis
}

func severityRank(sev models.LeakSeverity) int {
	switch sev {
	case models.SeverityCritical:
		return 3
	case models.SeverityHigh:
		return 2
	case models.SeverityMedium:
		return 1
	}
	return 0
}

func alertThreshold(sev models.LeakSeverity) float64 {
	switch sev {
	case models.SeverityCritical:
		return 95
	case models.SeverityHigh:
		return 80
	case models.SeverityMedium:
		return 60
	}
	return 40
}
