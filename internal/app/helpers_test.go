package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testNow is Monday of ISO week 16, 2024.
var testNow = time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)

const validProgram = `{
	"week14": [{"weekday": "MONDAY", "title": "Run", "completed": true}],
	"week15": [{"weekday": "WEDNESDAY", "title": "Swim", "completed": false}],
	"week16": [{"weekday": "MONDAY", "title": "Walk", "completed": true},
	           {"weekday": "FRIDAY", "title": "Bike", "completed": false}]
}`

const (
	testUser     = "admin"
	testPassword = "correct horse"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SecretKey = "test-secret"
	cfg.ClientURL = "http://localhost:3000"
	cfg.KeepAlive = time.Hour
	return cfg
}

func testCredentials(t *testing.T) *Credentials {
	t.Helper()
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	return &Credentials{User: testUser, hash: hash}
}

type testEnv struct {
	cfg     *Config
	server  *Server
	store   *Store
	broker  *Broker
	metrics *Metrics
	handler http.Handler
}

// newTestEnv builds a server on an in-memory store. Nil creds run it in
// dev mode.
func newTestEnv(t *testing.T, cfg *Config, creds *Credentials) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := NewMetrics()
	store := NewStore(nil, metrics, logger)
	broker := NewBroker(metrics, logger)
	server := NewServer(ServerOptions{
		Config:      cfg,
		Store:       store,
		Broker:      broker,
		Credentials: creds,
		Metrics:     metrics,
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	})
	return &testEnv{
		cfg:     cfg,
		server:  server,
		store:   store,
		broker:  broker,
		metrics: metrics,
		handler: server.Routes(),
	}
}

func (e *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestRequireMethod(t *testing.T) {
	w := httptest.NewRecorder()
	assert.False(t, RequireMethod(w, httptest.NewRequest(http.MethodPost, "/", nil), http.MethodGet))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	assert.True(t, RequireMethod(w, httptest.NewRequest(http.MethodGet, "/", nil), http.MethodGet))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := WithCORS("http://localhost:3000", next)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/treatment", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		WithCORS("", next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestDateParam(t *testing.T) {
	env := newTestEnv(t, testConfig(), nil)

	got, ok := env.server.dateParam(httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.Equal(t, testNow, got)

	got, ok = env.server.dateParam(httptest.NewRequest(http.MethodGet, "/?date=2024-05-02", nil))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), got)

	_, ok = env.server.dateParam(httptest.NewRequest(http.MethodGet, "/?date=02.05.2024", nil))
	assert.False(t, ok)
}
