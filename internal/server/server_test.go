package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cafe-directory/internal/common/auth"
	"cafe-directory/internal/common/config"
	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/listings"
	"cafe-directory/internal/models"
	"cafe-directory/internal/query"
)

// ==========================
// Test Helper Functions
// ==========================

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var healthy = pingFunc(func(context.Context) error { return nil })

type testServer struct {
	handler http.Handler
	mock    sqlmock.Sqlmock
	store   *auth.RedisSessionStore
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "cafe-directory", Environment: "test"},
		Server: config.ServerConfig{Address: ":0", ReadTimeout: 1000, WriteTimeout: 1000},
		Auth: config.AuthConfig{
			APIToken:       "s3cret",
			SessionCookie:  "session_token",
			SessionPrefix:  "session:",
			LoginPath:      "/login",
			DashboardPath:  "/dashboard",
			ExternalPrefix: "/external",
		},
		CORS: config.CORSConfig{
			AppURL:         "https://cafe.example.com",
			AllowedOrigins: []string{"https://partner.example.org"},
			MaxAge:         600,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, redisPing Pinger) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := auth.NewRedisSessionStore(client, cfg.Auth.SessionPrefix)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	errs := apperrors.NewErrorHandler(log, false)

	srv := New(cfg, Deps{
		Listings: listings.Deps{
			DB:       db,
			Executor: query.NewExecutor(db, nil, log, time.Second),
			Errors:   errs,
			Logger:   log,
		},
		Auth:     auth.NewMiddleware(store, cfg.Auth, errs, log),
		Postgres: healthy,
		Redis:    redisPing,
		Logger:   log,
	})

	return &testServer{handler: srv.Handler(), mock: mock, store: store}
}

func (ts *testServer) signIn(t *testing.T, req *http.Request, userID, role string) {
	t.Helper()
	token := "tok-" + userID
	require.NoError(t, ts.store.Save(context.Background(), &models.Session{
		Token:     token,
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

// ==========================
// Operational Endpoints
// ==========================

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		redis      Pinger
		wantStatus int
		wantBody   string
	}{
		{"all dependencies up", healthy, http.StatusOK, `"status":"ready"`},
		{"redis down", pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			http.StatusServiceUnavailable, `"redis":"connection refused"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), tt.redis)

			rec := ts.do(httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)
	ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="GET /health",status="200"}`)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/menus", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// CORS
// ==========================

func TestAllowOrigin(t *testing.T) {
	s := &Server{cfg: testConfig()}

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:3000", false},
		{"https://cafe-git-main.vercel.app", true},
		{"https://vercel.app.evil.com", false},
		{"https://cafe.example.com", true},
		{"https://partner.example.org", true},
		{"https://evil.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, s.allowOrigin(tt.origin))
		})
	}
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	req := httptest.NewRequest(http.MethodOptions, "/api/reviews", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := ts.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflight_DisallowedOrigin(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	req := httptest.NewRequest(http.MethodOptions, "/api/cafes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := ts.do(req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// ==========================
// Route Gates
// ==========================

func TestPublicListing_RejectsBeforeQuerying(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/cafes?page=0", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestExternalMount(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantError     string
	}{
		{"missing header", "", http.StatusUnauthorized, "Unauthorized"},
		{"not bearer", "Basic czNjcmV0", http.StatusUnauthorized, "Unauthorized"},
		{"wrong token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"valid token reaches the listing", "Bearer s3cret", http.StatusBadRequest, "Invalid parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), healthy)

			req := httptest.NewRequest(http.MethodGet, "/external/api/cafes?limit=101", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := ts.do(req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, errorOf(t, rec))
		})
	}
}

func TestExternalMount_TokenNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIToken = ""
	ts := newTestServer(t, cfg, healthy)

	req := httptest.NewRequest(http.MethodGet, "/external/api/terms", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := ts.do(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server misconfiguration"}`, rec.Body.String())
}

func TestExternalMount_IsReadOnly(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	req := httptest.NewRequest(http.MethodPost, "/external/api/reviews", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := ts.do(req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMutations_RequireSession(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/reviews", nil),
		httptest.NewRequest(http.MethodPut, "/api/cafe-recommendations", nil),
		httptest.NewRequest(http.MethodDelete, "/api/reviews/r1", nil),
	} {
		rec := ts.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.Method+" "+req.URL.Path)
	}
}

func TestDelete_ForbiddenForOtherUser(t *testing.T) {
	ts := newTestServer(t, testConfig(), healthy)
	ts.mock.ExpectQuery(`^SELECT user_id FROM reviews WHERE id = \$1$`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("author"))

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/r1", nil)
	ts.signIn(t, req, "intruder", models.RoleUser)
	rec := ts.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestDashboard(t *testing.T) {
	tests := []struct {
		name         string
		role         string
		wantStatus   int
		wantLocation string
	}{
		{"anonymous", "", http.StatusFound, "/login"},
		{"regular user", models.RoleUser, http.StatusFound, "/"},
		{"admin reaches the listing", models.RoleAdmin, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), healthy)

			req := httptest.NewRequest(http.MethodGet, "/dashboard/api/cafe-recommendations?orderDir=sideways", nil)
			if tt.role != "" {
				ts.signIn(t, req, "u-"+tt.role, tt.role)
			}
			rec := ts.do(req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}
