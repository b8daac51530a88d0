package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/OfferDesk/internal/config"
	"github.com/dharsanguruparan/OfferDesk/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Address:        "127.0.0.1:0",
		Store:          config.StoreMemory,
		FileBackend:    config.FilesLocal,
		UploadDir:      filepath.Join(t.TempDir(), "uploads"),
		MaxFileSize:    5 << 20,
		MaxBodySize:    24 << 20,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      100,
		RateWindow:     time.Minute,
		SigningSecret:  []byte("secret"),
		SignedURLTTL:   time.Minute,
	}
}

func TestNewServesHealth(t *testing.T) {
	var logs bytes.Buffer
	srv, err := New(context.Background(), testConfig(t), NewLogger(&logs, slog.LevelDebug))
	require.NoError(t, err)
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), `"route":"GET /healthz"`)
	assert.IsType(t, &repository.MemoryRepository{}, srv.Repository())
	assert.NotNil(t, srv.Files())
}

func TestOpenRepositorySQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "offerdesk.db")

	repo, closeRepo, err := OpenRepository(context.Background(), cfg)
	require.NoError(t, err)
	defer closeRepo()
	apps, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestOpenRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "mongo"
	_, _, err := OpenRepository(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.FileBackend = "ftp"
	_, err = OpenFiles(context.Background(), cfg)
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := New(context.Background(), testConfig(t), NewLogger(&bytes.Buffer{}, slog.LevelInfo))
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRedisLimiterWarnsOnceWhileFailingOpen(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(t)
	cfg.RedisAddr = "127.0.0.1:1"
	s := &Server{cfg: cfg, logger: NewLogger(&logs, slog.LevelInfo)}

	limiter, closeLimiter := s.newLimiter(context.Background())
	defer closeLimiter()
	require.NotNil(t, limiter)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(context.Background(), "10.0.0.1"))
	}
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("rate limiter failing open")))
}
