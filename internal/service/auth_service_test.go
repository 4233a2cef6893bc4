package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type mockAuthUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created *models.User
}

func (m *mockAuthUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockAuthUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-new"
	}
	m.created = user
	return nil
}

func (m *mockAuthUserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

type mockAuthPlumberRepo struct {
	byEmail map[string]*models.Plumber
}

func (m *mockAuthPlumberRepo) GetByEmail(ctx context.Context, email string) (*models.Plumber, error) {
	if p, ok := m.byEmail[email]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, appErrors.ErrNotFound
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func authFixture(t *testing.T) (*AuthService, *mockAuthUserRepo, *mockAuthPlumberRepo) {
	users := &mockAuthUserRepo{byEmail: map[string]*models.User{
		"ops@aquaflow.example": {
			ID:           "user-1",
			Name:         "Pat",
			Email:        "ops@aquaflow.example",
			PasswordHash: hashOf(t, "water-tight"),
			Role:         models.RoleStaff,
			IsActive:     true,
		},
	}}
	plumbers := &mockAuthPlumberRepo{byEmail: map[string]*models.Plumber{
		"mario@example.com": {
			ID:           "plm-1",
			Name:         "Mario",
			Email:        "mario@example.com",
			PasswordHash: hashOf(t, "fix-it-felix"),
			IsActive:     true,
		},
	}}
	svc := NewAuthService(users, plumbers, AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "aquaflow"}, nil, nil)
	return svc, users, plumbers
}

func TestLoginStaffIssuesStaffToken(t *testing.T) {
	svc, _, _ := authFixture(t)

	resp, err := svc.LoginStaff(context.Background(), LoginRequest{
		Email:    "ops@aquaflow.example",
		Password: "water-tight",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActorStaff, resp.ActorKind)
	assert.Equal(t, models.RoleStaff, resp.Role)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ActorID)
	assert.Equal(t, models.ActorStaff, claims.ActorKind)
}

func TestLoginPlumberIssuesPlumberToken(t *testing.T) {
	svc, _, _ := authFixture(t)

	resp, err := svc.LoginPlumber(context.Background(), LoginRequest{
		Email:    "mario@example.com",
		Password: "fix-it-felix",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActorPlumber, resp.ActorKind)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "plm-1", claims.ActorID)
	assert.Equal(t, models.ActorPlumber, claims.ActorKind)
	assert.Empty(t, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _, _ := authFixture(t)

	_, err := svc.LoginStaff(context.Background(), LoginRequest{
		Email:    "ops@aquaflow.example",
		Password: "wrong",
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmailWithSameError(t *testing.T) {
	svc, _, _ := authFixture(t)

	_, err := svc.LoginStaff(context.Background(), LoginRequest{
		Email:    "nobody@aquaflow.example",
		Password: "whatever",
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, users, _ := authFixture(t)
	users.byEmail["ops@aquaflow.example"].IsActive = false

	_, err := svc.LoginStaff(context.Background(), LoginRequest{
		Email:    "ops@aquaflow.example",
		Password: "water-tight",
	})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _, _ := authFixture(t)

	resp, err := svc.LoginStaff(context.Background(), LoginRequest{
		Email:    "ops@aquaflow.example",
		Password: "water-tight",
	})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.Token + "x")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestRegisterStaffHashesPassword(t *testing.T) {
	svc, users, _ := authFixture(t)

	user, err := svc.RegisterStaff(context.Background(), RegisterStaffRequest{
		Name:     "Sam",
		Email:    "sam@aquaflow.example",
		Password: "long-enough",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough")))
	assert.NotNil(t, users.created)
}
