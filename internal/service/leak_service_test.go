package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type mockLeakRepo struct {
	leaks   map[string]*models.Leak
	created *models.Leak
}

func (m *mockLeakRepo) List(ctx context.Context, filter models.LeakFilter) ([]models.Leak, int, error) {
	return nil, 0, nil
}

func (m *mockLeakRepo) GetByID(ctx context.Context, id string) (*models.Leak, error) {
	if l, ok := m.leaks[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockLeakRepo) Create(ctx context.Context, leak *models.Leak) error {
	if leak.ID == "" {
		leak.ID = "leak-new"
	}
	m.created = leak
	if m.leaks == nil {
		m.leaks = make(map[string]*models.Leak)
	}
	copied := *leak
	m.leaks[leak.ID] = &copied
	return nil
}

func (m *mockLeakRepo) Update(ctx context.Context, leak *models.Leak) error {
	copied := *leak
	m.leaks[leak.ID] = &copied
	return nil
}

func (m *mockLeakRepo) Delete(ctx context.Context, id string) error {
	delete(m.leaks, id)
	return nil
}

func (m *mockLeakRepo) Stats(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func TestCalculatePriority(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name string
		leak models.Leak
		want int
	}{
		{"low base", models.Leak{Severity: models.SeverityLow, CreatedAt: now}, 3},
		{"medium base", models.Leak{Severity: models.SeverityMedium, CreatedAt: now}, 5},
		{"high base", models.Leak{Severity: models.SeverityHigh, CreatedAt: now}, 8},
		{"critical base", models.Leak{Severity: models.SeverityCritical, CreatedAt: now}, 10},
		{"emergency bump", models.Leak{Severity: models.SeverityMedium, IsEmergency: true, CreatedAt: now}, 7},
		{"pending shutoff", models.Leak{
			Severity:     models.SeverityMedium,
			WaterShutoff: models.WaterShutoff{Required: true},
			CreatedAt:    now,
		}, 6},
		{"completed shutoff does not bump", models.Leak{
			Severity:     models.SeverityMedium,
			WaterShutoff: models.WaterShutoff{Required: true, Completed: true},
			CreatedAt:    now,
		}, 5},
		{"aged a day", models.Leak{Severity: models.SeverityMedium, CreatedAt: now.Add(-30 * time.Hour)}, 6},
		{"aged two days", models.Leak{Severity: models.SeverityMedium, CreatedAt: now.Add(-60 * time.Hour)}, 7},
		{"capped at ten", models.Leak{
			Severity:     models.SeverityCritical,
			IsEmergency:  true,
			WaterShutoff: models.WaterShutoff{Required: true},
			CreatedAt:    now.Add(-60 * time.Hour),
		}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			leak := tc.leak
			assert.Equal(t, tc.want, CalculatePriority(&leak, now))
		})
	}
}

func TestReportLeakStampsTimelineAndPriority(t *testing.T) {
	repo := &mockLeakRepo{}
	svc := NewLeakService(repo, nil, nil)

	leak, err := svc.Report(context.Background(), ReportLeakRequest{
		Title:       "Burst pipe in basement",
		Description: "Water pooling under the main riser",
		Severity:    models.SeverityHigh,
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
		IsEmergency: true,
	}, models.ActorRef{Kind: models.ActorStaff, ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, models.LeakReported, leak.Status)
	assert.Equal(t, 10, leak.Priority)
	assert.Equal(t, models.ReportManual, leak.ReportMethod)
	require.Len(t, leak.Timeline, 1)
	assert.Equal(t, models.LeakReported, leak.Timeline[0].Status)
}

func TestReportLeakRejectsBadCoordinates(t *testing.T) {
	svc := NewLeakService(&mockLeakRepo{}, nil, nil)

	_, err := svc.Report(context.Background(), ReportLeakRequest{
		Title:       "Ghost leak",
		Description: "nowhere",
		Severity:    models.SeverityLow,
		Location:    models.Location{Longitude: 0, Latitude: 0},
	}, models.ActorRef{Kind: models.ActorStaff, ID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateLeakAppendsTimelineOnStatusChange(t *testing.T) {
	repo := &mockLeakRepo{leaks: map[string]*models.Leak{"leak-1": {
		ID:        "leak-1",
		Severity:  models.SeverityMedium,
		Status:    models.LeakReported,
		CreatedAt: time.Now().UTC(),
		Timeline:  models.LeakTimeline{{Status: models.LeakReported}},
	}}}
	svc := NewLeakService(repo, nil, nil)

	confirmed := models.LeakConfirmed
	leak, err := svc.Update(context.Background(), "leak-1", UpdateLeakRequest{
		Status: &confirmed,
		Notes:  "verified on site",
	}, models.ActorRef{Kind: models.ActorStaff, ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, models.LeakConfirmed, leak.Status)
	require.Len(t, leak.Timeline, 2)
	assert.Equal(t, "verified on site", leak.Timeline[1].Notes)
}
