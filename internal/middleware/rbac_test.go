package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/aquaflow/aquaflow-api/internal/models"
)

func performRequest(t *testing.T, claims *models.JWTClaims, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	c.Request = req
	if claims != nil {
		c.Set(ContextActorKey, claims)
	}
	for _, h := range handlers {
		h(c)
		if c.IsAborted() {
			break
		}
	}
	return w
}

func TestRequireActorAllowsMatchingKind(t *testing.T) {
	ok := false
	claims := &models.JWTClaims{ActorID: "p1", ActorKind: models.ActorPlumber}
	performRequest(t, claims, RequireActor(models.ActorPlumber), func(c *gin.Context) { ok = true })
	assert.True(t, ok)
}

func TestRequireActorRejectsOtherKind(t *testing.T) {
	claims := &models.JWTClaims{ActorID: "p1", ActorKind: models.ActorPlumber}
	w := performRequest(t, claims, RequireActor(models.ActorStaff))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireActorRejectsAnonymous(t *testing.T) {
	w := performRequest(t, nil, RequireActor(models.ActorStaff))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminRejectsRegularStaff(t *testing.T) {
	claims := &models.JWTClaims{ActorID: "s1", ActorKind: models.ActorStaff, Role: models.RoleStaff}
	w := performRequest(t, claims, RequireAdmin())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	ok := false
	claims := &models.JWTClaims{ActorID: "s1", ActorKind: models.ActorStaff, Role: models.RoleAdmin}
	performRequest(t, claims, RequireAdmin(), func(c *gin.Context) { ok = true })
	assert.True(t, ok)
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sensors/readings", nil)
	req.Header.Set("X-API-Key", "wrong")
	c.Request = req
	APIKey("secret")(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ = http.NewRequest(http.MethodPost, "/sensors/readings", nil)
	req.Header.Set("X-API-Key", "secret")
	c.Request = req
	APIKey("secret")(c)
	assert.False(t, c.IsAborted())
}
