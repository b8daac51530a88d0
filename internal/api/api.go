// Package api exposes the application intake endpoints over net/http.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/filestore"
	"github.com/dharsanguruparan/OfferDesk/internal/metrics"
	"github.com/dharsanguruparan/OfferDesk/internal/ratelimit"
	"github.com/dharsanguruparan/OfferDesk/internal/repository"
	"github.com/dharsanguruparan/OfferDesk/internal/signing"
)

// filesPath prefixes stored names in download links.
const filesPath = "/api/files/"

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to temporary files.
const multipartMemory = 8 << 20

var validate = validator.New()

// Deps are the process-scoped resources a Handler uses. Only Repo and Files
// are required.
type Deps struct {
	Repo    repository.Repository
	Files   *filestore.Store
	Signer  *signing.Signer
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Options tune transport behaviour.
type Options struct {
	// MaxBodySize caps every request body in bytes.
	MaxBodySize    int64
	AllowedOrigins []string
	// TrustProxy keys rate limiting on X-Forwarded-For.
	TrustProxy bool
	// SignedURLTTL is the lifetime of download links returned by the
	// offer-letter lookup.
	SignedURLTTL time.Duration
	// RequireSignedDownloads makes the files endpoint refuse links without a
	// valid signature.
	RequireSignedDownloads bool
}

// Handler serves the HTTP API.
type Handler struct {
	repo    repository.Repository
	files   *filestore.Store
	signer  *signing.Signer
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	opts    Options
	origins map[string]struct{}
}

// New constructs a Handler.
func New(deps Deps, opts Options) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 15 * time.Minute
	}
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	return &Handler{
		repo:    deps.Repo,
		files:   deps.Files,
		signer:  deps.Signer,
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  logger,
		opts:    opts,
		origins: origins,
	}
}

// Routes returns the full middleware-wrapped handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	mux.HandleFunc("POST /api/applications", h.handleCreate)
	mux.HandleFunc("GET /api/applications", h.handleList)
	mux.HandleFunc("GET /api/applications/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/applications/{id}", h.handleUpdateStatus)
	mux.HandleFunc("POST /api/applications/{id}/offer-letter", h.handleAttachOfferLetter)
	mux.HandleFunc("GET /api/offer-letter", h.handleOfferLetter)
	mux.HandleFunc("GET /api/files/{filename}", h.handleFile)

	var handler http.Handler = mux
	handler = h.bodyLimit(handler)
	if h.limiter != nil {
		handler = ratelimit.Middleware(h.limiter, h.clientKey, http.HandlerFunc(h.handleRateLimited))(handler)
	}
	handler = h.cors(handler)
	handler = h.logRequests(handler)
	handler = h.recoverPanics(handler)
	return handler
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	h.metrics.ObserveRateLimited()
	h.writeError(w, r, apperror.New(apperror.CodeRateLimited, "Too many requests, please try again later", nil))
}

func (h *Handler) clientKey(r *http.Request) string {
	return ratelimit.ClientIP(r, h.opts.TrustProxy)
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Field   string   `json:"field,omitempty"`
}

// writeError maps err to a status once and logs it with the request shape.
// Internal causes are logged but never echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	code := apperror.CodeOf(err)
	status := apperror.HTTPStatus(code)
	body := errorBody{Message: "Internal server error"}
	var appErr *apperror.Error
	if code != apperror.CodeInternal && errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Errors = appErr.Details
		body.Field = appErr.Field
		if len(appErr.Details) > 0 {
			body.Message = strings.Join(appErr.Details, "; ")
		}
	}
	logAttrs := append([]any{
		"route", routeOf(r),
		"method", r.Method,
		"status", status,
		"code", string(code),
		"error", err.Error(),
	}, attrs...)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", logAttrs...)
	} else {
		h.logger.Warn("request rejected", logAttrs...)
	}
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// pathID parses the {id} wildcard. Anything but a positive integer is an
// invalid argument rather than a lookup miss.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidArgument("invalid application id")
	}
	return id, nil
}

func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
