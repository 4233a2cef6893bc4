package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
)

type mockSensorStore struct {
	created []*models.SensorReading
}

func (m *mockSensorStore) Create(ctx context.Context, reading *models.SensorReading) error {
	if reading.ID == "" {
		reading.ID = "rdg-new"
	}
	m.created = append(m.created, reading)
	return nil
}

func (m *mockSensorStore) List(ctx context.Context, filter models.SensorFilter) ([]models.SensorReading, int, error) {
	return nil, 0, nil
}

func (m *mockSensorStore) Latest(ctx context.Context) ([]models.SensorReading, error) {
	return nil, nil
}

type mockLeakWriter struct {
	created *models.Leak
	updated *models.Leak
}

func (m *mockLeakWriter) Create(ctx context.Context, leak *models.Leak) error {
	if leak.ID == "" {
		leak.ID = "leak-auto"
	}
	m.created = leak
	return nil
}

func (m *mockLeakWriter) Update(ctx context.Context, leak *models.Leak) error {
	m.updated = leak
	return nil
}

type mockDispatchOpener struct {
	created *models.ServiceRequest
}

func (m *mockDispatchOpener) Create(ctx context.Context, request *models.ServiceRequest) error {
	if request.ID == "" {
		request.ID = "svc-auto"
	}
	m.created = request
	return nil
}

func ptr(v float64) *float64 { return &v }

func TestAnalyzeWaterLevelThresholds(t *testing.T) {
	cases := []struct {
		level float64
		want  models.LeakSeverity
		alert bool
	}{
		{95, models.SeverityCritical, true},
		{75, models.SeverityHigh, true},
		{55, models.SeverityMedium, false},
		{30, models.SeverityLow, false},
	}
	for _, tc := range cases {
		analysis := Analyze(&models.SensorReading{SensorID: "sen-1", WaterLevel: ptr(tc.level)})
		assert.Equal(t, tc.want, analysis.Severity, "level %.0f", tc.level)
		assert.Equal(t, tc.alert, analysis.AlertRequired, "level %.0f", tc.level)
	}
}

func TestAnalyzeFlowAndPressure(t *testing.T) {
	analysis := Analyze(&models.SensorReading{SensorID: "sen-1", Flow: ptr(160), Pressure: ptr(15)})
	assert.Equal(t, models.SeverityHigh, analysis.Severity)
	assert.True(t, analysis.LeakDetected)
	assert.Len(t, analysis.Anomalies, 2)

	trickle := Analyze(&models.SensorReading{SensorID: "sen-1", Flow: ptr(2)})
	assert.False(t, trickle.LeakDetected)
	assert.NotEmpty(t, trickle.Recommendations)
}

func TestAnalyzeQuietReading(t *testing.T) {
	analysis := Analyze(&models.SensorReading{SensorID: "sen-1", WaterLevel: ptr(20), Flow: ptr(40), Pressure: ptr(50), PH: ptr(7.2)})
	assert.Equal(t, models.SeverityLow, analysis.Severity)
	assert.False(t, analysis.LeakDetected)
	assert.False(t, analysis.AlertRequired)
	assert.Equal(t, 40.0, analysis.AlertThreshold)
}

func TestAnalyzeAlertThresholds(t *testing.T) {
	assert.Equal(t, 95.0, Analyze(&models.SensorReading{WaterLevel: ptr(95)}).AlertThreshold)
	assert.Equal(t, 80.0, Analyze(&models.SensorReading{WaterLevel: ptr(75)}).AlertThreshold)
	assert.Equal(t, 60.0, Analyze(&models.SensorReading{WaterLevel: ptr(55)}).AlertThreshold)
}

func TestIngestCriticalReadingAutoDispatches(t *testing.T) {
	readings := &mockSensorStore{}
	leaks := &mockLeakWriter{}
	dispatch := &mockDispatchOpener{}
	svc := NewSensorService(readings, leaks, dispatch, nil, nil)

	analysis, err := svc.Ingest(context.Background(), IngestReadingRequest{
		SensorID:   "sen-9",
		Location:   models.Location{Longitude: -122.4194, Latitude: 37.7749},
		WaterLevel: ptr(97),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCritical, analysis.Severity)
	require.Len(t, readings.created, 1)

	require.NotNil(t, leaks.created)
	assert.Equal(t, models.ReportIoTSensor, leaks.created.ReportMethod)
	assert.True(t, leaks.created.IsEmergency)
	assert.Equal(t, 10, leaks.created.Priority)

	require.NotNil(t, dispatch.created)
	assert.Equal(t, models.StatusPlumberSearch, dispatch.created.Status)
	assert.Equal(t, models.PriorityEmergency, dispatch.created.Priority)
	assert.Equal(t, models.ServiceEmergency, dispatch.created.ServiceType)

	require.NotNil(t, leaks.updated)
	assert.Equal(t, models.LeakAssigned, leaks.updated.Status)
	require.NotNil(t, analysis.LeakID)
	require.NotNil(t, analysis.ServiceID)
}

func TestIngestRoutineReadingStoresOnly(t *testing.T) {
	readings := &mockSensorStore{}
	leaks := &mockLeakWriter{}
	dispatch := &mockDispatchOpener{}
	svc := NewSensorService(readings, leaks, dispatch, nil, nil)

	analysis, err := svc.Ingest(context.Background(), IngestReadingRequest{
		SensorID:   "sen-9",
		Location:   models.Location{Longitude: -122.4194, Latitude: 37.7749},
		WaterLevel: ptr(35),
	})
	require.NoError(t, err)
	assert.False(t, analysis.LeakDetected)
	require.Len(t, readings.created, 1)
	assert.Equal(t, models.DeviceOnline, readings.created[0].DeviceStatus)
	assert.Nil(t, leaks.created)
	assert.Nil(t, dispatch.created)
}
