package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
)

const (
	corsMethods = "GET,POST,PUT,OPTIONS"
	corsHeaders = "Content-Type,Authorization"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += int64(n)
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := routeOf(r)
		h.metrics.ObserveRequest(route, r.Method, rec.status, elapsed)
		h.logger.Info("request",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", elapsed.Milliseconds(),
			"client", h.clientKey(r),
		)
	})
}

// recoverPanics turns a panic into a 500. When the handler had already started
// the response the connection is aborted instead, so the client never sees a
// truncated body as a complete one.
func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.logger.Error("panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
					"stack", string(debug.Stack()),
					"response_started", rec.status != 0,
				)
				if rec.status != 0 {
					panic(http.ErrAbortHandler)
				}
				respondJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// cors admits requests without an Origin header (same origin, curl) and
// requests from the allow-list. Any other origin is refused outright.
func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Origin")
		if _, ok := h.origins[strings.TrimRight(origin, "/")]; !ok {
			h.writeError(w, r, apperror.New(apperror.CodeForbidden, "Origin not allowed", nil), "origin", origin)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", corsMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.MaxBodySize > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}
