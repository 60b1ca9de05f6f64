package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/aaandrangom/biblioteca-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	adminCedula     = "0100000001"
	librarianCedula = "0100000003"
	clientCedula    = "0100000002"
	otherCedula     = "0100000009"
)

// stubFinder resolves every title to a fixed edition unless it is listed as missing
type stubFinder struct {
	missing map[string]bool
}

func (f *stubFinder) FindCover(ctx context.Context, title string) (*models.Cover, error) {
	if f.missing[title] {
		return nil, services.ErrCoverNotFound
	}
	return &models.Cover{
		Title:     title,
		URL:       "https://covers.example.com/b/olid/OL1M-L.jpg",
		EditionID: "OL1M",
	}, nil
}

// testApp wires real services over an in-memory database with mocked outbound dependencies
type testApp struct {
	t        *testing.T
	db       *gorm.DB
	notifier *services.MockNotifier
	events   *services.MockPublisher
	images   *services.MockImageService
	covers   *services.MemoryCoverRepository
	tokens   *services.TokenService
	uploads  string
	handlers *Handlers
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	app := &testApp{
		t:        t,
		db:       db,
		notifier: services.NewMockNotifier(),
		events:   &services.MockPublisher{},
		images:   services.NewMockImageService(),
		covers:   services.NewMemoryCoverRepository(),
		tokens:   services.NewTokenService(cfg),
		uploads:  t.TempDir(),
	}

	cache := services.NewCoverCache("")
	t.Cleanup(cache.Stop)

	users := services.NewUserService(db, app.notifier, app.tokens)
	app.handlers = &Handlers{
		Books:     NewBookController(services.NewBookService(db)),
		Users:     NewUserController(users),
		Auth:      NewAuthController(users),
		Orders:    NewOrderController(services.NewOrderService(db, app.notifier, app.events, false)),
		Covers:    NewCoverController(services.NewCoverService(app.covers, cache, &stubFinder{missing: map[string]bool{"inexistente": true}}, app.images)),
		Uploads:   NewUploadController(app.uploads),
		Dashboard: NewDashboardController(services.NewDashboardService(db)),
	}

	testutil.CreateUser(t, db, adminCedula, models.RoleAdmin)
	testutil.CreateUser(t, db, clientCedula, models.RoleClient)
	testutil.CreateUser(t, db, librarianCedula, models.RoleLibrarian)
	testutil.CreateUser(t, db, otherCedula, models.RoleClient)

	return app
}

// routerAs builds a router whose protected routes authenticate every request as cedula
func (a *testApp) routerAs(cedula string, role models.Role) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), a.handlers, testutil.MockAuth(cedula, role), nil)
	return router
}

func (a *testApp) admin() *gin.Engine  { return a.routerAs(adminCedula, models.RoleAdmin) }
func (a *testApp) client() *gin.Engine { return a.routerAs(clientCedula, models.RoleClient) }

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "response should be valid JSON: %s", w.Body.String())
	return response
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], w.Body.String())
	return response["data"].(map[string]interface{})
}

func listOf(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], w.Body.String())
	return response["data"].([]interface{})
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"], w.Body.String())
	return response["error"].(map[string]interface{})["code"].(string)
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
