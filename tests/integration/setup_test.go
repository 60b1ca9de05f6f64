package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaandrangom/biblioteca-api/controllers"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/aaandrangom/biblioteca-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// offlineFinder stands in for Open Library so the suites never leave the process
type offlineFinder struct{}

func (offlineFinder) FindCover(ctx context.Context, title string) (*models.Cover, error) {
	return &models.Cover{
		Title:     title,
		URL:       "https://covers.example.com/b/olid/OL7353617M-L.jpg",
		EditionID: "OL7353617M",
	}, nil
}

// stack is the service graph a suite runs against
type stack struct {
	db       *gorm.DB
	notifier *services.MockNotifier
	events   *services.MockPublisher
	tokens   *services.TokenService
	handlers *controllers.Handlers
}

type stackOptions struct {
	strict    bool
	uploadDir string
}

func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.RequireTestEnvironment(t)

	if opts.uploadDir == "" {
		opts.uploadDir = t.TempDir()
	}

	s := &stack{
		db:       testutil.NewTestDB(t),
		notifier: services.NewMockNotifier(),
		events:   &services.MockPublisher{},
		tokens:   services.NewTokenService(testutil.TestConfig()),
	}

	cache := services.NewCoverCache("")
	t.Cleanup(cache.Stop)
	covers := services.NewCoverService(services.NewMemoryCoverRepository(), cache, offlineFinder{}, services.NewLocalImageService(opts.uploadDir))

	users := services.NewUserService(s.db, s.notifier, s.tokens)
	s.handlers = &controllers.Handlers{
		Books:     controllers.NewBookController(services.NewBookService(s.db)),
		Users:     controllers.NewUserController(users),
		Auth:      controllers.NewAuthController(users),
		Orders:    controllers.NewOrderController(services.NewOrderService(s.db, s.notifier, s.events, opts.strict)),
		Covers:    controllers.NewCoverController(covers),
		Uploads:   controllers.NewUploadController(opts.uploadDir),
		Dashboard: controllers.NewDashboardController(services.NewDashboardService(s.db)),
	}
	return s
}

// router mounts the API behind the given authentication middleware
func (s *stack) router(auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	controllers.RegisterRoutes(router.Group("/api/v1"), s.handlers, auth, nil)
	return router
}

func (s *stack) routerAs(cedula string, role models.Role) *gin.Engine {
	return s.router(testutil.MockAuth(cedula, role))
}

func doJSON(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dst != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env
}
