package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/maps"
	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type candidateFinder interface {
	FindEligible(ctx context.Context, loc models.Location, radiusKm float64, serviceType models.ServiceType) ([]models.PlumberSummary, error)
}

type distanceRouter interface {
	Enabled() bool
	Distances(ctx context.Context, origin models.Location, destinations []models.Location) ([]maps.Route, error)
}

type matchCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// MatchQuery describes one matching run.
type MatchQuery struct {
	Location    models.Location        `json:"location" validate:"required"`
	ServiceType models.ServiceType     `json:"service_type" validate:"required"`
	Priority    models.ServicePriority `json:"priority" validate:"required"`
	Urgency     models.Urgency         `json:"urgency"`
}

// MatchingService ranks eligible providers for a service request. Scoring
// is deterministic: replaying the same profiles and distances reproduces
// every breakdown exactly.
type MatchingService struct {
	plumbers  candidateFinder
	router    distanceRouter
	cache     matchCache
	cfg       config.MatchingConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMatchingService constructs MatchingService.
func NewMatchingService(plumbers candidateFinder, router distanceRouter, cache matchCache, cfg config.MatchingConfig, validate *validator.Validate, logger *zap.Logger) *MatchingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchingService{plumbers: plumbers, router: router, cache: cache, cfg: cfg, validator: validate, logger: logger}
}

// WithMetrics attaches the metrics service and returns the receiver.
func (s *MatchingService) WithMetrics(metrics *MetricsService) *MatchingService {
	s.metrics = metrics
	return s
}

// SearchRadiusKm resolves the radius policy: emergency priority or urgent
// urgency widens to the emergency radius, high priority to the middle one.
func (s *MatchingService) SearchRadiusKm(priority models.ServicePriority, urgency models.Urgency) float64 {
	switch {
	case priority == models.PriorityEmergency || urgency == models.UrgencyUrgent:
		return s.cfg.EmergencyRadiusKm
	case priority == models.PriorityHigh:
		return s.cfg.HighRadiusKm
	default:
		return s.cfg.BaseRadiusKm
	}
}

// Match finds, scores and ranks providers for the query. Zero candidates
// is a normal outcome reported through an empty result, never an error.
func (s *MatchingService) Match(ctx context.Context, query MatchQuery) (*models.MatchResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match query")
	}
	if !query.Location.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location coordinates out of range")
	}
	if !query.ServiceType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service type")
	}
	if !query.Priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}

	key := s.cacheKey(query)
	if s.cache != nil {
		var cached models.MatchResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("match cache read failed", zap.Error(err))
		}
	}

	start := time.Now()
	radius := s.SearchRadiusKm(query.Priority, query.Urgency)
	summaries, err := s.plumbers.FindEligible(ctx, query.Location, radius, query.ServiceType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidates")
	}

	candidates := s.rank(ctx, query, summaries)
	result := &models.MatchResult{
		Candidates:   candidates,
		RadiusUsedKm: radius,
		TotalFound:   len(summaries),
	}
	if len(result.Candidates) > s.maxCandidates() {
		result.Candidates = result.Candidates[:s.maxCandidates()]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("match cache write failed", zap.Error(err))
		}
	}
	s.metrics.ObserveMatchingRun(query.Priority, time.Since(start))
	return result, nil
}

// rank scores every summary and sorts descending. The sort is stable so
// equal totals keep the proximity order the repository returned.
func (s *MatchingService) rank(ctx context.Context, query MatchQuery, summaries []models.PlumberSummary) []models.RankedCandidate {
	candidates := make([]models.RankedCandidate, 0, len(summaries))
	routes := s.refineDistances(ctx, query.Location, summaries)
	for i, summary := range summaries {
		distanceKm := geo.DistanceHaversine(query.Location.Point(), summary.Location.Point()) / 1000
		source := models.DistanceHaversine
		durationMins := 0.0
		if routes != nil {
			distanceKm = routes[i].DistanceKm
			durationMins = routes[i].DurationMins
			source = models.DistanceRouted
		}
		candidates = append(candidates, models.RankedCandidate{
			Plumber:        summary,
			DistanceKm:     distanceKm,
			DistanceSource: source,
			DurationMins:   durationMins,
			Score:          Score(summary, distanceKm, query.Priority),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score.Total > candidates[j].Score.Total
	})
	return candidates
}

// refineDistances asks the routing provider for travel estimates. On any
// degradation the whole batch falls back to haversine, keeping all
// candidates on the same distance source.
func (s *MatchingService) refineDistances(ctx context.Context, origin models.Location, summaries []models.PlumberSummary) []maps.Route {
	if s.router == nil || !s.router.Enabled() || len(summaries) == 0 {
		return nil
	}
	destinations := make([]models.Location, len(summaries))
	for i, summary := range summaries {
		destinations[i] = summary.Location
	}
	routes, err := s.router.Distances(ctx, origin, destinations)
	if err != nil {
		s.logger.Warn("distance refinement degraded, using haversine", zap.Error(err))
		return nil
	}
	return routes
}

func (s *MatchingService) maxCandidates() int {
	if s.cfg.MaxCandidates > 0 {
		return s.cfg.MaxCandidates
	}
	return 10
}

func (s *MatchingService) cacheKey(query MatchQuery) string {
	return fmt.Sprintf("match:%s:%s:%s:%.5f:%.5f",
		query.ServiceType, query.Priority, query.Urgency,
		query.Location.Latitude, query.Location.Longitude)
}

// Score computes the weighted breakdown for one candidate at the given
// distance. Components:
//
//	rating        up to 40    proportional to the 0..5 average
//	experience    up to 20    saturates at 50 completed jobs
//	availability  0 or 25
//	emergency     0 or 10     emergency priority and emergency coverage
//	response time up to 15    7.5 when no history exists yet
//	distance      up to -20   2 points per kilometre
//
// The floor is zero.
func Score(p models.PlumberSummary, distanceKm float64, priority models.ServicePriority) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{
		RatingScore:     p.Rating.Average / 5 * 40,
		ExperienceScore: minFloat(float64(p.CompletedJobs)/50, 1) * 20,
	}
	if p.Availability.IsAvailable {
		breakdown.AvailabilityScore = 25
	}
	if priority == models.PriorityEmergency && p.Availability.EmergencyAvailable {
		breakdown.EmergencyBonus = 10
	}
	if p.AvgResponseMins > 0 {
		breakdown.ResponseTimeScore = maxFloat(0, 15-p.AvgResponseMins/60*3)
	} else {
		breakdown.ResponseTimeScore = 7.5
	}
	breakdown.DistancePenalty = minFloat(distanceKm*2, 20)

	total := breakdown.RatingScore + breakdown.ExperienceScore + breakdown.AvailabilityScore +
		breakdown.EmergencyBonus + breakdown.ResponseTimeScore - breakdown.DistancePenalty
	breakdown.Total = maxFloat(0, total)
	return breakdown
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
