package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

func newPlumberRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPlumberRepositoryFindEligible(t *testing.T) {
	db, mock, cleanup := newPlumberRepoMock(t)
	defer cleanup()
	repo := NewPlumberRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "business_name", "location", "services", "availability",
		"rating", "completed_jobs", "avg_response_mins", "distance_km"}).
		AddRow("plm-1", "Mario", "Mario Plumbing", []byte(`{"longitude":-122.41,"latitude":37.77}`),
			[]byte(`["leak_repair"]`), []byte(`{"is_available":true,"emergency_available":false}`),
			[]byte(`{"average":4.5,"count":20}`), 34, 25.0, 2.4)
	mock.ExpectQuery(`WHERE is_active = true AND is_verified = true AND \(availability->>'is_available'\)::bool = true AND services @>`).
		WithArgs(37.7749, -122.4194, `["leak_repair"]`, 15.0).
		WillReturnRows(rows)

	loc := models.Location{Longitude: -122.4194, Latitude: 37.7749}
	candidates, err := repo.FindEligible(context.Background(), loc, 15, models.ServiceLeakRepair)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "plm-1", candidates[0].ID)
	require.InDelta(t, 2.4, candidates[0].DistanceKm, 1e-9)
	require.True(t, candidates[0].Availability.IsAvailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlumberRepositoryUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newPlumberRepoMock(t)
	defer cleanup()
	repo := NewPlumberRepository(db)

	mock.ExpectExec("UPDATE plumbers SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	plumber := &models.Plumber{ID: "plm-1", Version: 2}
	err := repo.Update(context.Background(), plumber)
	require.ErrorIs(t, err, appErrors.ErrConcurrentModification)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlumberRepositoryCreateInitializesVersion(t *testing.T) {
	db, mock, cleanup := newPlumberRepoMock(t)
	defer cleanup()
	repo := NewPlumberRepository(db)

	mock.ExpectExec("INSERT INTO plumbers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	plumber := &models.Plumber{
		Name:     "Mario",
		Email:    "mario@example.com",
		Location: models.Location{Longitude: -122.41, Latitude: 37.77},
		Services: models.ServiceTypes{models.ServiceLeakRepair},
	}
	err := repo.Create(context.Background(), plumber)
	require.NoError(t, err)
	require.NotEmpty(t, plumber.ID)
	require.Equal(t, 1, plumber.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
