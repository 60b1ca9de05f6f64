package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaandrangom/biblioteca-api/middleware"
	"github.com/aaandrangom/biblioteca-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestRouter builds the full application over an in-memory database with every optional backend disabled
func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	cfg := testutil.TestConfig()
	cfg.UploadDir = t.TempDir()
	db := testutil.NewTestDB(t)

	app, err := newApplication(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return setupRouter(cfg, db, app.handlers, middleware.EnsureValidToken(cfg), limiter), db
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Biblioteca API is running", response["message"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req, _ := http.NewRequest(method, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s should not be allowed", method)
	}
}

// TestAPIV1Prefix tests that the endpoint requires /api/v1 prefix
func TestAPIV1Prefix(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "Endpoint should require /api/v1 prefix")
}

func TestDatabaseStatusIntegration(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/database/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Success bool     `json:"success"`
		Driver  string   `json:"driver"`
		Tables  []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "sqlite", response.Driver)
	assert.Subset(t, response.Tables, []string{"libro", "inventario_libro", "usuario", "pedido", "libro_pedido"})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_TOKEN")

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestLoginIsRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, middleware.NewRateLimiter(authRequestsPerSecond, authBurst))

	codes := make([]int, 0, authBurst+1)
	for i := 0; i <= authBurst; i++ {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	for _, code := range codes[:authBurst] {
		assert.Equal(t, http.StatusBadRequest, code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[authBurst])
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "https://biblioteca.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
