// Package api implements the REST + WebSocket façade over the suggestion
// service and brain runtime events — a concrete in-scope transport for the
// external editor the tile runtime is built to be embedded under.
//
// A chi.Router assembled from a Config struct, middleware applied once,
// routes registered in groups, served with an http.Server that shuts down
// on context cancellation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
)

// Config bundles the dependencies the façade exposes.
type Config struct {
	Addr string

	Brain       *brain.BrainDef
	RuntimeEnv  runtime.Env
	Global      *catalog.Catalog
	Conversions *overloads.Conversions
	// Events is the running brain's event emitter, or nil if no runtime
	// instance is attached yet (the suggest and brain-dump routes still
	// work without one).
	Events *runtime.Brain

	Logger *zap.Logger
}

// NewRouter assembles the chi router: suggestion, brain-dump, and
// WebSocket-events routes, with zap-backed request logging and panic
// recovery.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(zapRequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Post("/suggest", suggestHandler(cfg))
	r.Get("/brain", brainDumpHandler(cfg))
	r.Get("/ws/events", eventsHandler(cfg))

	return r
}

// Run starts an http.Server on cfg.Addr and blocks until ctx is cancelled,
// then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{Addr: cfg.Addr, Handler: NewRouter(cfg)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.Logger != nil {
		cfg.Logger.Info("api: starting", zap.String("addr", cfg.Addr))
	}
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger != nil {
				logger.Info("api: request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("elapsed", time.Since(start)),
				)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
