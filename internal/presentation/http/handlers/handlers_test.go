package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/manager"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/stores"
	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/status"
	"github.com/GatherLoop/gathersync/internal/infrastructure/security"
	"github.com/GatherLoop/gathersync/pkg/config"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testLogger(t)
	cfg := config.NewCacheConfig()
	cache := manager.NewManager(stores.NewMemoryStore(), cfg, logger)
	rules := config.DefaultRouteRules()

	// An origin nothing listens on keeps handler tests network-free.
	closed := httptest.NewServer(nil)
	closed.Close()
	originClient, err := origin.NewClient(closed.URL, "/api/health", 200*time.Millisecond)
	require.NoError(t, err)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	broadcaster := messaging.NewBroadcaster(logger)
	classifier := services.NewClassifierService(rules)
	lifecycle := services.NewLifecycleService(cache, originClient, cfg, rules, broadcaster, logger)
	refresh := services.NewRefreshService(cache, originClient, classifier, status.NewRepository(db), logger)
	maintenance := services.NewMaintenanceService(cache, logger)

	controlHandlers := NewControlHandlers(lifecycle, refresh, maintenance, logger)
	pushHandlers := NewPushHandlers(services.NewNotificationService(broadcaster, logger), logger)
	fetchHandlers := NewGatewayHandlers(services.NewFetchService(cache, originClient, classifier, logger), logger)

	r := gin.New()
	r.POST("/sync/message", controlHandlers.PostMessage)
	r.POST("/push", pushHandlers.PostPush)
	r.Any("/gateway/*path", fetchHandlers.Proxy)
	return r
}

func do(r *gin.Engine, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostMessageGetVersion(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"GET_VERSION"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"version"`)
}

func TestPostMessageRejectsUnknownType(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"REFRESH_EVERYTHING"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unknown message type")
}

func TestPostMessageRejectsClientEventTypes(t *testing.T) {
	// Worker-to-client types are not accepted on the control endpoint.
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"NOTIFICATION"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostMessageSkipWaiting(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"SKIP_WAITING"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"activated":true`)
}

func TestPostMessageClearCache(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"CLEAR_CACHE"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
	require.Contains(t, w.Body.String(), `"cleared":true`)
}

func TestPostMessageCacheMaintenanceReportsSuccess(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"CACHE_MAINTENANCE"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
	require.Contains(t, w.Body.String(), `"evicted"`)
}

func TestPostMessageTriggerCacheUpdateReportsFailure(t *testing.T) {
	// The test origin is dead, so the refresh runs but nothing warms.
	r := testRouter(t)

	w := do(r, http.MethodPost, "/sync/message", `{"type":"TRIGGER_CACHE_UPDATE"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
	require.Contains(t, w.Body.String(), `"error"`)
}

func TestPostPushAcceptsPlainText(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/push", "New event!", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "New event!")
}

func TestGatewayServesOfflinePageForNavigation(t *testing.T) {
	r := testRouter(t)

	header := make(http.Header)
	header.Set("Sec-Fetch-Mode", "navigate")
	w := do(r, http.MethodGet, "/gateway/events", "", header)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Internet Connection Required")
}

func TestGatewayReturnsBadGatewayForUncachedAPI(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodGet, "/gateway/api/events", "", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPostMessageClearCacheRequiresTokenWhenConfigured(t *testing.T) {
	r := testRouter(t)

	previous := config.JWTSecret
	config.JWTSecret = "handler-test-secret"
	t.Cleanup(func() { config.JWTSecret = previous })

	w := do(r, http.MethodPost, "/sync/message", `{"type":"CLEAR_CACHE"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := security.GenerateAdminToken(config.JWTSecret, time.Minute)
	require.NoError(t, err)

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token)
	w = do(r, http.MethodPost, "/sync/message", `{"type":"CLEAR_CACHE"}`, header)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
}
