package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaandrangom/biblioteca-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	healthCheck(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, map[string]interface{}{
		"success": true,
		"message": "Biblioteca API is running",
	}, response)
}

func TestDatabaseStatus_ConnectionLost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	router := gin.New()
	router.GET("/database/status", databaseStatus(db))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/database/status", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "DATABASE_CONNECTION_ERROR", response["error"].(map[string]interface{})["code"])
}

func TestCorsConfig(t *testing.T) {
	tests := []struct {
		name      string
		origins   []string
		allowAll  bool
		allowList []string
	}{
		{name: "wildcard", origins: []string{"*"}, allowAll: true},
		{name: "unset", origins: nil, allowAll: true},
		{name: "explicit list", origins: []string{"https://biblioteca.example.com", "http://localhost:5173"}, allowList: []string{"https://biblioteca.example.com", "http://localhost:5173"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := corsConfig(tt.origins)
			assert.Equal(t, tt.allowAll, cfg.AllowAllOrigins)
			assert.Equal(t, tt.allowList, cfg.AllowOrigins)
			assert.Contains(t, cfg.AllowHeaders, "Authorization")
		})
	}
}
