// Package server builds OfferDesk's dependencies from configuration and runs
// the HTTP listener until its context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/dharsanguruparan/OfferDesk/internal/api"
	"github.com/dharsanguruparan/OfferDesk/internal/config"
	"github.com/dharsanguruparan/OfferDesk/internal/database"
	"github.com/dharsanguruparan/OfferDesk/internal/filestore"
	"github.com/dharsanguruparan/OfferDesk/internal/metrics"
	"github.com/dharsanguruparan/OfferDesk/internal/ratelimit"
	"github.com/dharsanguruparan/OfferDesk/internal/repository"
	"github.com/dharsanguruparan/OfferDesk/internal/signing"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	rateLimitPrefix   = "offerdesk:ratelimit"
	redisWarnInterval = 30 * time.Second
)

// Server hosts the OfferDesk API.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	repo    repository.Repository
	files   *filestore.Store
	handler http.Handler
	closers []func()
}

// NewLogger returns the JSON logger every binary uses.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// New opens the configured repository, file backend and rate limiter and
// builds the HTTP handler. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	repo, closeRepo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.repo = repo
	s.closers = append(s.closers, closeRepo)

	files, err := OpenFiles(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.files = files

	limiter, closeLimiter := s.newLimiter(ctx)
	s.closers = append(s.closers, closeLimiter)

	s.handler = api.New(api.Deps{
		Repo:    repo,
		Files:   files,
		Signer:  signing.NewSigner(cfg.SigningSecret),
		Limiter: limiter,
		Metrics: metrics.New(),
		Logger:  logger,
	}, api.Options{
		MaxBodySize:            cfg.MaxBodySize,
		AllowedOrigins:         cfg.AllowedOrigins,
		TrustProxy:             cfg.TrustProxy,
		SignedURLTTL:           cfg.SignedURLTTL,
		RequireSignedDownloads: cfg.RequireSignedDownloads,
	}).Routes()
	return s, nil
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Repository returns the repository the server was built with.
func (s *Server) Repository() repository.Repository { return s.repo }

// Files returns the file store the server was built with.
func (s *Server) Files() *filestore.Store { return s.files }

// Serve launches the HTTP server until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()
	s.logger.Info("listening",
		"address", s.cfg.Address,
		"store", s.cfg.Store,
		"file_backend", s.cfg.FileBackend,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenRepository connects to the configured store and makes sure its schema
// exists. The returned func releases the connection.
func OpenRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPostgres(pool), pool.Close, nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repository.NewSQLite(db), func() { _ = db.Close() }, nil
	case config.StoreMemory:
		return repository.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// OpenFiles builds the file store on the configured backend.
func OpenFiles(ctx context.Context, cfg *config.Config) (*filestore.Store, error) {
	var backend filestore.Backend
	switch cfg.FileBackend {
	case config.FilesLocal:
		local, err := filestore.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		backend = local
	case config.FilesS3:
		object, err := filestore.NewObject(filestore.ObjectConfig{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := object.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		backend = object
	default:
		return nil, fmt.Errorf("unknown file backend %q", cfg.FileBackend)
	}
	return filestore.New(backend, filestore.Options{
		MaxSize:   cfg.MaxFileSize,
		StrictPDF: cfg.StrictPDF,
	}), nil
}

// newLimiter shares counters through Redis when an address is configured and
// keeps them in process otherwise. A zero limit disables rate limiting.
func (s *Server) newLimiter(ctx context.Context) (ratelimit.Limiter, func()) {
	policy := ratelimit.Policy{Limit: s.cfg.RateLimit, Window: s.cfg.RateWindow}
	if !policy.Enabled() {
		s.logger.Info("rate limiting disabled")
		return nil, func() {}
	}
	if s.cfg.RedisAddr == "" {
		return ratelimit.NewMemory(policy), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPassword,
		DB:       s.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		s.logger.Warn("redis unreachable, rate limiter will fail open", "addr", s.cfg.RedisAddr, "error", err)
	}
	// a Redis outage fails every check; one warning per interval is enough
	warn := &rate.Sometimes{First: 1, Interval: redisWarnInterval}
	limiter := ratelimit.NewRedis(client, policy, rateLimitPrefix, func(err error) {
		warn.Do(func() { s.logger.Warn("rate limiter failing open", "error", err) })
	})
	return limiter, func() { _ = client.Close() }
}
