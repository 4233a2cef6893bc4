package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/middleware"
	"github.com/aquaflow/aquaflow-api/internal/models"
)

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestLeakHandlerReportInvalidBody(t *testing.T) {
	handler := NewLeakHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/leaks", []byte(`not json`))

	handler.Report(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestPlumberHandlerNearbyRequiresCoordinates(t *testing.T) {
	handler := NewPlumberHandler(nil)
	c, w := newTestContext(t, http.MethodGet, "/plumbers/nearby?lat=37.7", nil)

	handler.Nearby(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "lat and lng")
}

func TestSensorHandlerListRejectsBadSince(t *testing.T) {
	handler := NewSensorHandler(nil)
	c, w := newTestContext(t, http.MethodGet, "/sensors/readings?since=yesterday", nil)

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "RFC3339")
}

func TestServiceHandlerAssignInvalidBody(t *testing.T) {
	handler := NewServiceHandler(nil, nil)
	c, w := newTestContext(t, http.MethodPut, "/services/abc/assign", []byte(`{`))
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Assign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActorFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	assert.Equal(t, models.ActorRef{}, actorFromContext(c))

	claims := &models.JWTClaims{ActorID: "plumber-1", ActorKind: models.ActorPlumber}
	c.Set(middleware.ContextActorKey, claims)
	actor := actorFromContext(c)
	assert.Equal(t, models.ActorPlumber, actor.Kind)
	assert.Equal(t, "plumber-1", actor.ID)
}

func TestPlumberUpdateRejectsOtherProfile(t *testing.T) {
	handler := NewPlumberHandler(nil)
	c, w := newTestContext(t, http.MethodPut, "/plumbers/other", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	c.Set(middleware.ContextActorKey, &models.JWTClaims{ActorID: "mine", ActorKind: models.ActorPlumber})

	handler.Update(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPageParamsDefaults(t *testing.T) {
	c, _ := newTestContext(t, http.MethodGet, "/leaks?page=-3&limit=abc", nil)
	page, size := pageParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
