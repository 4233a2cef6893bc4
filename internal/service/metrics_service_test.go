package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
)

func TestMetricsSnapshotAggregates(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest("GET", "/leaks", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/services", 201, 30*time.Millisecond)
	m.ObserveMatchingRun(models.PriorityEmergency, 5*time.Millisecond)
	m.ObserveTransition(models.StatusPlumberAssigned)
	m.ObserveTransition(models.StatusVerified)
	m.ObserveSensorAlert(models.SeverityCritical)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.01)
	assert.Equal(t, uint64(1), snap.MatchingRuns)
	assert.Equal(t, uint64(2), snap.ServiceTransitions)
	assert.Equal(t, uint64(1), snap.SensorAlerts)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.001)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/leaks", 200, time.Millisecond)
	m.ObserveMatchingRun(models.PriorityHigh, time.Millisecond)
	m.ObserveTransition(models.StatusClosed)
	m.ObserveSensorAlert(models.SeverityHigh)
	m.RecordCacheOperation(true)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
	require.NotNil(t, m.Handler())
}
