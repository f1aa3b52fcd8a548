package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelkit/internal/coerce"
	"modelkit/internal/command"
	"modelkit/internal/runtime"
	"modelkit/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Invoke(ctx context.Context, name string, wire map[string]any) (map[string]any, error)
	Manifest() []types.CommandManifest
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the router: per-command dispatch plus the manifest, status,
// health, and metrics endpoints.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	if limiter != nil {
		r.Use(RateLimitMiddleware)
	}
	r.Use(MetricsMiddleware)

	r.Get("/v1/commands", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ManifestResponse{Commands: svc.Manifest()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, kindInternal, "failed to encode response")
		}
	})

	r.Post("/v1/commands/{name}", func(w http.ResponseWriter, r *http.Request) {
		invokeCommand(svc, w, r, chi.URLParam(r, "name"))
	})

	// Bare POST /{name} alias for clients using the short invocation form.
	r.Post("/{name}", func(w http.ResponseWriter, r *http.Request) {
		invokeCommand(svc, w, r, chi.URLParam(r, "name"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, kindInternal, "failed to encode response")
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// invokeCommand is the per-request dispatch pipeline: parse the body, invoke
// through the service, map errors, write the response envelope.
func invokeCommand(svc Service, w http.ResponseWriter, r *http.Request, name string) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, kindInvalidInput, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var wire map[string]any
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, kindInvalidInput, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
		return
	}

	start := time.Now()
	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		logEvent(r, "invoke start").Str("command", name).Send()
	}

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	out, err := svc.Invoke(ctx, name, wire)
	if err != nil {
		// Client disconnect or shutdown: the response has no consumer.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status, kind := classifyError(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("queue_full")
		}
		ObserveCommand(name, kind)
		writeJSONError(w, status, kind, err.Error())
		if lvl >= LevelInfo || status >= 500 {
			logEvent(r, "invoke end").Str("command", name).Int("status", status).Dur("dur", time.Since(start)).Err(err).Send()
		}
		return
	}
	ObserveCommand(name, "ok")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		// Headers already went out; nothing to salvage beyond the log line.
		logEvent(r, "invoke write failed").Str("command", name).Err(err).Send()
		return
	}
	if lvl >= LevelInfo {
		logEvent(r, "invoke end").Str("command", name).Int("status", http.StatusOK).Dur("dur", time.Since(start)).Send()
	}
}

// classifyError maps service errors to HTTP status and stable error kinds.
func classifyError(err error) (int, string) {
	switch {
	case coerce.IsInvalidInput(err):
		return http.StatusBadRequest, kindInvalidInput
	case command.IsUnknownCommand(err):
		return http.StatusNotFound, kindUnknownCommand
	case runtime.IsTooBusy(err):
		return http.StatusTooManyRequests, kindTooBusy
	case runtime.IsNotReady(err):
		return http.StatusServiceUnavailable, kindNotReady
	case coerce.IsSerialization(err):
		return http.StatusInternalServerError, kindSerialization
	case runtime.IsHandlerRuntime(err):
		return http.StatusInternalServerError, kindHandlerError
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode(), kindInternal
	}
	return http.StatusInternalServerError, kindInternal
}
