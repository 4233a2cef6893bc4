package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

func TestClientDistances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/distance-matrix", r.URL.Path)
		require.Len(t, r.URL.Query()["destinations"], 2)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"routes":[{"distance_meters":3200,"duration_seconds":480},{"distance_meters":11000,"duration_seconds":1200}]}`))
	}))
	defer server.Close()

	client := NewClient(config.MapsConfig{BaseURL: server.URL, Timeout: time.Second}, nil)
	routes, err := client.Distances(context.Background(),
		models.Location{Longitude: -122.4194, Latitude: 37.7749},
		[]models.Location{
			{Longitude: -122.41, Latitude: 37.78},
			{Longitude: -122.30, Latitude: 37.80},
		})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	require.InDelta(t, 3.2, routes[0].DistanceKm, 1e-9)
	require.InDelta(t, 8.0, routes[0].DurationMins, 1e-9)
}

func TestClientDistancesDegradedOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(config.MapsConfig{BaseURL: server.URL, Timeout: time.Second}, nil)
	_, err := client.Distances(context.Background(),
		models.Location{Longitude: -122.4194, Latitude: 37.7749},
		[]models.Location{{Longitude: -122.41, Latitude: 37.78}})
	require.ErrorIs(t, err, appErrors.ErrExternalServiceDegraded)
}

func TestClientDisabledWithoutBaseURL(t *testing.T) {
	client := NewClient(config.MapsConfig{}, nil)
	require.False(t, client.Enabled())
	_, err := client.Distances(context.Background(),
		models.Location{Longitude: 0.1, Latitude: 0.1},
		[]models.Location{{Longitude: 0.2, Latitude: 0.2}})
	require.ErrorIs(t, err, appErrors.ErrExternalServiceDegraded)
}
