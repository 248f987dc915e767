package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/clothingloop/server/internal/app"
	iauth "github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/database/testutil"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/mailqueue"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: time.Hour})
	require.NoError(t, err)
	accounts, err := identity.NewGormStore(db)
	require.NoError(t, err)
	queue, err := mailqueue.NewQueue(db)
	require.NoError(t, err)

	router, err := NewRouter(db, jwtSvc, &app.Config{}, Dependencies{Accounts: accounts, Queue: queue})
	require.NoError(t, err)
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/info").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/chain/all").Code)

	for _, path := range []string{"/v1/user?uid=x", "/v1/user/email?email=a@example.com", "/v1/admin/audit"} {
		require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, path).Code, path)
	}
	for _, path := range []string{"/v1/chain/create", "/v1/chain/add-user"} {
		require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, path).Code, path)
	}
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPatch, "/v1/user/update").Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodGet, "/v1/unknown")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	_, err = NewRouter(nil, jwtSvc, &app.Config{}, Dependencies{})
	require.Error(t, err)
	_, err = NewRouter(db, jwtSvc, &app.Config{}, Dependencies{})
	require.Error(t, err)
}
