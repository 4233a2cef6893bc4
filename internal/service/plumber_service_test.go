package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type mockPlumberRepo struct {
	plumbers map[string]*models.Plumber
	byEmail  map[string]*models.Plumber
	nearby   []models.PlumberSummary
}

func (m *mockPlumberRepo) List(ctx context.Context, filter models.PlumberFilter) ([]models.Plumber, int, error) {
	return nil, 0, nil
}

func (m *mockPlumberRepo) GetByID(ctx context.Context, id string) (*models.Plumber, error) {
	if p, ok := m.plumbers[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockPlumberRepo) GetByEmail(ctx context.Context, email string) (*models.Plumber, error) {
	if p, ok := m.byEmail[email]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockPlumberRepo) Create(ctx context.Context, plumber *models.Plumber) error {
	if plumber.ID == "" {
		plumber.ID = "plm-new"
	}
	if m.plumbers == nil {
		m.plumbers = make(map[string]*models.Plumber)
	}
	if m.byEmail == nil {
		m.byEmail = make(map[string]*models.Plumber)
	}
	copied := *plumber
	m.plumbers[plumber.ID] = &copied
	m.byEmail[plumber.Email] = &copied
	return nil
}

func (m *mockPlumberRepo) Update(ctx context.Context, plumber *models.Plumber) error {
	copied := *plumber
	m.plumbers[plumber.ID] = &copied
	return nil
}

func (m *mockPlumberRepo) Nearby(ctx context.Context, loc models.Location, radiusKm float64) ([]models.PlumberSummary, error) {
	return m.nearby, nil
}

func (m *mockPlumberRepo) Stats(ctx context.Context, plumberID string) (*models.PlumberStats, error) {
	return &models.PlumberStats{TotalServices: 12, CompletedServices: 9, CompletionRate: 75}, nil
}

func registerRequest() RegisterPlumberRequest {
	return RegisterPlumberRequest{
		Name:       "Mario",
		Email:      "mario@example.com",
		Password:   "fix-it-felix",
		Phone:      "+14155550101",
		Location:   models.Location{Longitude: -122.4194, Latitude: 37.7749},
		Services:   []models.ServiceType{models.ServiceLeakRepair},
		HourlyRate: "85.00",
	}
}

func TestRegisterPlumberStartsUnverified(t *testing.T) {
	repo := &mockPlumberRepo{}
	svc := NewPlumberService(repo, nil, nil)

	plumber, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.False(t, plumber.IsVerified)
	assert.True(t, plumber.IsActive)
	assert.True(t, plumber.Availability.IsAvailable)
	assert.Equal(t, 25.0, plumber.ServiceRadiusKm)
	assert.Equal(t, "85", plumber.Pricing.HourlyRate.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(plumber.PasswordHash), []byte("fix-it-felix")))
}

func TestRegisterPlumberRejectsDuplicateEmail(t *testing.T) {
	repo := &mockPlumberRepo{byEmail: map[string]*models.Plumber{
		"mario@example.com": {ID: "plm-1"},
	}}
	svc := NewPlumberService(repo, nil, nil)

	_, err := svc.Register(context.Background(), registerRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestVerifyPlumberIsIdempotent(t *testing.T) {
	repo := &mockPlumberRepo{plumbers: map[string]*models.Plumber{"plm-1": {ID: "plm-1"}}}
	svc := NewPlumberService(repo, nil, nil)

	first, err := svc.Verify(context.Background(), "plm-1")
	require.NoError(t, err)
	require.NotNil(t, first.VerifiedAt)

	second, err := svc.Verify(context.Background(), "plm-1")
	require.NoError(t, err)
	assert.Equal(t, first.VerifiedAt.Unix(), second.VerifiedAt.Unix())
}

func TestSetAvailabilityTogglesFlags(t *testing.T) {
	repo := &mockPlumberRepo{plumbers: map[string]*models.Plumber{"plm-1": {
		ID:           "plm-1",
		Availability: models.Availability{IsAvailable: true},
	}}}
	svc := NewPlumberService(repo, nil, nil)

	off := false
	emergency := true
	plumber, err := svc.SetAvailability(context.Background(), "plm-1", AvailabilityRequest{
		IsAvailable:        &off,
		EmergencyAvailable: &emergency,
	})
	require.NoError(t, err)
	assert.False(t, plumber.Availability.IsAvailable)
	assert.True(t, plumber.Availability.EmergencyAvailable)
}

func TestNearbyDefaultsRadius(t *testing.T) {
	repo := &mockPlumberRepo{nearby: []models.PlumberSummary{{ID: "plm-1", DistanceKm: 1.2}}}
	svc := NewPlumberService(repo, nil, nil)

	summaries, err := svc.Nearby(context.Background(), models.Location{Longitude: -122.4194, Latitude: 37.7749}, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestStatsMergesProfileMetrics(t *testing.T) {
	repo := &mockPlumberRepo{plumbers: map[string]*models.Plumber{"plm-1": {
		ID:              "plm-1",
		Rating:          models.Rating{Average: 4.7, Count: 40},
		AvgResponseMins: 18,
	}}}
	svc := NewPlumberService(repo, nil, nil)

	stats, err := svc.Stats(context.Background(), "plm-1")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalServices)
	assert.InDelta(t, 4.7, stats.Rating.Average, 1e-9)
	assert.InDelta(t, 18, stats.AvgResponseMins, 1e-9)
}
