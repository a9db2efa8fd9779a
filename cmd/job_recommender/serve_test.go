package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/config"
)

func localConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Session: config.SessionConfig{CandidateLimit: 100, DefaultTop: 20, MaxTop: 50},
		Recs:    config.RecsConfig{Mode: config.RecsModeLocal, Timeout: time.Second},
		Ingest:  config.IngestConfig{Timeout: time.Second, MaxFiles: 10, MaxFileBytes: 1 << 20},
		Auth:    config.AuthConfig{JWTExpirationHours: 1},
	}
}

func TestNewApp_Local(t *testing.T) {
	cfg := localConfig()
	require.NoError(t, cfg.Validate())

	srv, cleanup, err := newApp(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/company-info", strings.NewReader(`{"company_name":"카카오"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewApp_Remote(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := localConfig()
	cfg.Recs.Mode = config.RecsModeRemote
	cfg.Recs.BaseURL = upstream.URL
	cfg.Ingest.BaseURL = upstream.URL
	require.NoError(t, cfg.Validate())

	srv, cleanup, err := newApp(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApp_UnreachableDatabase(t *testing.T) {
	cfg := localConfig()
	cfg.Database.URL = "postgres://user@127.0.0.1:1/jobs?connect_timeout=1"

	_, _, err := newApp(t.Context(), cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}
