package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

func newServiceRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestServiceRequestRepositoryCreateStampsReference(t *testing.T) {
	db, mock, cleanup := newServiceRequestRepoMock(t)
	defer cleanup()
	repo := NewServiceRequestRepository(db)

	mock.ExpectExec("INSERT INTO service_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := &models.ServiceRequest{
		LeakID:      "leak-1",
		RequestedBy: "user-1",
		Status:      models.StatusPending,
		ServiceType: models.ServiceLeakRepair,
		Priority:    models.PriorityHigh,
		Location:    models.Location{Longitude: -122.4194, Latitude: 37.7749},
	}
	err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	require.NotEmpty(t, request.ID)
	require.True(t, strings.HasPrefix(request.RequestID, "SR-"))
	require.Equal(t, request.RequestID, strings.ToUpper(request.RequestID))
	require.Equal(t, 1, request.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestRepositoryUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newServiceRequestRepoMock(t)
	defer cleanup()
	repo := NewServiceRequestRepository(db)

	mock.ExpectExec("UPDATE service_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	request := &models.ServiceRequest{
		ID:      "svc-1",
		Status:  models.StatusPlumberAssigned,
		Version: 3,
	}
	err := repo.Update(context.Background(), request)
	require.ErrorIs(t, err, appErrors.ErrConcurrentModification)
	require.Equal(t, 3, request.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestRepositoryUpdateBumpsVersion(t *testing.T) {
	db, mock, cleanup := newServiceRequestRepoMock(t)
	defer cleanup()
	repo := NewServiceRequestRepository(db)

	mock.ExpectExec("UPDATE service_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := &models.ServiceRequest{
		ID:      "svc-1",
		Status:  models.StatusPlumberConfirmed,
		Version: 3,
	}
	err := repo.Update(context.Background(), request)
	require.NoError(t, err)
	require.Equal(t, 4, request.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newServiceRequestRepoMock(t)
	defer cleanup()
	repo := NewServiceRequestRepository(db)

	mock.ExpectQuery("SELECT .+ FROM service_requests WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRequestIDFormat(t *testing.T) {
	id := newRequestID(time.Unix(1700000000, 0))
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	require.Equal(t, "SR", parts[0])
	require.Len(t, parts[2], 5)
	require.Equal(t, id, strings.ToUpper(id))
}
