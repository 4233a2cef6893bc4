package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/maps"
	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type mockCandidateFinder struct {
	summaries  []models.PlumberSummary
	lastRadius float64
}

func (m *mockCandidateFinder) FindEligible(ctx context.Context, loc models.Location, radiusKm float64, serviceType models.ServiceType) ([]models.PlumberSummary, error) {
	m.lastRadius = radiusKm
	return m.summaries, nil
}

type mockRouter struct {
	enabled bool
	routes  []maps.Route
	err     error
	calls   int
}

func (m *mockRouter) Enabled() bool { return m.enabled }

func (m *mockRouter) Distances(ctx context.Context, origin models.Location, destinations []models.Location) ([]maps.Route, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.routes, nil
}

type mockMatchCache struct {
	store map[string][]byte
	sets  int
}

func (m *mockMatchCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockMatchCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	return nil
}

func matchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		BaseRadiusKm:      10,
		HighRadiusKm:      15,
		EmergencyRadiusKm: 25,
		MaxCandidates:     10,
		CacheTTL:          30 * time.Second,
	}
}

func summaryAt(id string, lng, lat float64) models.PlumberSummary {
	return models.PlumberSummary{
		ID:           id,
		Name:         id,
		Location:     models.Location{Longitude: lng, Latitude: lat},
		Services:     models.ServiceTypes{models.ServiceLeakRepair},
		Availability: models.Availability{IsAvailable: true},
		Rating:       models.Rating{Average: 4.0, Count: 10},
	}
}

func TestSearchRadiusPolicy(t *testing.T) {
	svc := NewMatchingService(&mockCandidateFinder{}, nil, nil, matchingConfig(), nil, nil)

	assert.Equal(t, 10.0, svc.SearchRadiusKm(models.PriorityLow, models.UrgencyNormal))
	assert.Equal(t, 10.0, svc.SearchRadiusKm(models.PriorityMedium, models.UrgencyNormal))
	assert.Equal(t, 15.0, svc.SearchRadiusKm(models.PriorityHigh, models.UrgencyNormal))
	assert.Equal(t, 25.0, svc.SearchRadiusKm(models.PriorityEmergency, models.UrgencyNormal))
	assert.Equal(t, 25.0, svc.SearchRadiusKm(models.PriorityLow, models.UrgencyUrgent))
}

func TestMatchUsesHighRadiusForHighPriority(t *testing.T) {
	finder := &mockCandidateFinder{}
	svc := NewMatchingService(finder, nil, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, finder.lastRadius)
	assert.Equal(t, 15.0, result.RadiusUsedKm)
}

func TestMatchEmptyResultIsNotAnError(t *testing.T) {
	svc := NewMatchingService(&mockCandidateFinder{}, nil, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, 0, result.TotalFound)
	assert.Equal(t, 10.0, result.RadiusUsedKm)
}

func TestMatchCapsCandidateList(t *testing.T) {
	finder := &mockCandidateFinder{}
	for i := 0; i < 14; i++ {
		finder.summaries = append(finder.summaries, summaryAt(fmt.Sprintf("plm-%d", i), -122.41, 37.77))
	}
	svc := NewMatchingService(finder, nil, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 10)
	assert.Equal(t, 14, result.TotalFound)
}

func TestMatchStableOrderOnEqualScores(t *testing.T) {
	// Identical profiles at the same point produce identical totals, so
	// the proximity order from the repository must survive ranking.
	finder := &mockCandidateFinder{summaries: []models.PlumberSummary{
		summaryAt("plm-a", -122.41, 37.77),
		summaryAt("plm-b", -122.41, 37.77),
		summaryAt("plm-c", -122.41, 37.77),
	}}
	svc := NewMatchingService(finder, nil, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "plm-a", result.Candidates[0].Plumber.ID)
	assert.Equal(t, "plm-b", result.Candidates[1].Plumber.ID)
	assert.Equal(t, "plm-c", result.Candidates[2].Plumber.ID)
}

func TestMatchFallsBackToHaversineWhenRouterDegraded(t *testing.T) {
	finder := &mockCandidateFinder{summaries: []models.PlumberSummary{
		summaryAt("plm-1", -122.41, 37.77),
	}}
	router := &mockRouter{enabled: true, err: appErrors.ErrExternalServiceDegraded}
	svc := NewMatchingService(finder, router, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 1, router.calls)
	assert.Equal(t, models.DistanceHaversine, result.Candidates[0].DistanceSource)
	assert.Greater(t, result.Candidates[0].DistanceKm, 0.0)
}

func TestMatchUsesRoutedDistances(t *testing.T) {
	finder := &mockCandidateFinder{summaries: []models.PlumberSummary{
		summaryAt("plm-1", -122.41, 37.77),
	}}
	router := &mockRouter{enabled: true, routes: []maps.Route{{DistanceKm: 3.5, DurationMins: 9}}}
	svc := NewMatchingService(finder, router, nil, matchingConfig(), nil, nil)

	result, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, models.DistanceRouted, result.Candidates[0].DistanceSource)
	assert.InDelta(t, 3.5, result.Candidates[0].DistanceKm, 1e-9)
	assert.InDelta(t, 9.0, result.Candidates[0].DurationMins, 1e-9)
}

func TestHighPriorityRatingDistanceTradeoff(t *testing.T) {
	near := summaryAt("plm-near", -122.41, 37.77)
	near.Rating = models.Rating{Average: 4.8, Count: 147}
	near.CompletedJobs = 147
	far := summaryAt("plm-far", -122.40, 37.78)
	far.Rating = models.Rating{Average: 4.9, Count: 203}
	far.CompletedJobs = 203

	// Both sit past the 50-job experience cap, so the profiles differ
	// only in rating and distance. A tenth of rating is worth 0.8
	// points, exactly the penalty for the extra 0.4 km: these two tie.
	nearScore := Score(near, 0.8, models.PriorityHigh)
	farScore := Score(far, 1.2, models.PriorityHigh)
	assert.InDelta(t, 89.3, nearScore.Total, 1e-9)
	assert.InDelta(t, nearScore.Total, farScore.Total, 1e-9)
	assert.InDelta(t, 0.8, farScore.RatingScore-nearScore.RatingScore, 1e-9)
	assert.InDelta(t, 0.8, farScore.DistancePenalty-nearScore.DistancePenalty, 1e-9)

	run := func(t *testing.T, farRating float64) *models.MatchResult {
		t.Helper()
		far.Rating.Average = farRating
		finder := &mockCandidateFinder{summaries: []models.PlumberSummary{near, far}}
		router := &mockRouter{enabled: true, routes: []maps.Route{
			{DistanceKm: 0.8, DurationMins: 2},
			{DistanceKm: 1.2, DurationMins: 3},
		}}
		svc := NewMatchingService(finder, router, nil, matchingConfig(), nil, nil)
		result, err := svc.Match(context.Background(), MatchQuery{
			Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
			ServiceType: models.ServiceLeakRepair,
			Priority:    models.PriorityHigh,
		})
		require.NoError(t, err)
		assert.Equal(t, 15.0, finder.lastRadius)
		require.Len(t, result.Candidates, 2)
		return result
	}

	// A 0.4-point rating edge does not cover the 0.8-point extra
	// penalty; one more tenth of rating tips the order the other way.
	assert.Equal(t, "plm-near", run(t, 4.85).Candidates[0].Plumber.ID)
	assert.Equal(t, "plm-far", run(t, 5.0).Candidates[0].Plumber.ID)
}

func TestMatchWritesCache(t *testing.T) {
	cache := &mockMatchCache{}
	svc := NewMatchingService(&mockCandidateFinder{}, nil, cache, matchingConfig(), nil, nil)

	_, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestMatchRejectsInvalidLocation(t *testing.T) {
	svc := NewMatchingService(&mockCandidateFinder{}, nil, nil, matchingConfig(), nil, nil)

	_, err := svc.Match(context.Background(), MatchQuery{
		Location:    models.Location{Longitude: 200, Latitude: 95},
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityMedium,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScoreBreakdown(t *testing.T) {
	summary := models.PlumberSummary{
		Rating:          models.Rating{Average: 4.5, Count: 30},
		CompletedJobs:   25,
		AvgResponseMins: 30,
		Availability:    models.Availability{IsAvailable: true, EmergencyAvailable: true},
	}

	score := Score(summary, 5, models.PriorityEmergency)
	assert.InDelta(t, 36.0, score.RatingScore, 1e-9)
	assert.InDelta(t, 10.0, score.ExperienceScore, 1e-9)
	assert.InDelta(t, 25.0, score.AvailabilityScore, 1e-9)
	assert.InDelta(t, 10.0, score.EmergencyBonus, 1e-9)
	assert.InDelta(t, 13.5, score.ResponseTimeScore, 1e-9)
	assert.InDelta(t, 10.0, score.DistancePenalty, 1e-9)
	assert.InDelta(t, 84.5, score.Total, 1e-9)

	// Recomputing the components reproduces the total exactly.
	recomputed := score.RatingScore + score.ExperienceScore + score.AvailabilityScore +
		score.EmergencyBonus + score.ResponseTimeScore - score.DistancePenalty
	assert.Equal(t, recomputed, score.Total)
}

func TestScoreDefaultsResponsivenessWithoutHistory(t *testing.T) {
	summary := models.PlumberSummary{Rating: models.Rating{Average: 5}}
	score := Score(summary, 0, models.PriorityLow)
	assert.InDelta(t, 7.5, score.ResponseTimeScore, 1e-9)
}

func TestScoreCapsAndFloors(t *testing.T) {
	experienced := models.PlumberSummary{CompletedJobs: 500}
	assert.InDelta(t, 20.0, Score(experienced, 0, models.PriorityLow).ExperienceScore, 1e-9)

	far := Score(models.PlumberSummary{}, 40, models.PriorityLow)
	assert.InDelta(t, 20.0, far.DistancePenalty, 1e-9)
	assert.Equal(t, 0.0, far.Total)

	slow := models.PlumberSummary{AvgResponseMins: 600}
	assert.Equal(t, 0.0, Score(slow, 0, models.PriorityLow).ResponseTimeScore)
}

func TestScoreEmergencyBonusRequiresEmergencyPriority(t *testing.T) {
	summary := models.PlumberSummary{
		Availability: models.Availability{IsAvailable: true, EmergencyAvailable: true},
	}
	assert.Equal(t, 0.0, Score(summary, 0, models.PriorityHigh).EmergencyBonus)
	assert.Equal(t, 10.0, Score(summary, 0, models.PriorityEmergency).EmergencyBonus)
}
