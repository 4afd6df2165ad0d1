package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zuoanCo/visual-modal/internal/auth"
	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/health"
	"github.com/zuoanCo/visual-modal/internal/httputil"
	"github.com/zuoanCo/visual-modal/internal/metrics"
	"github.com/zuoanCo/visual-modal/internal/scene"
	"github.com/zuoanCo/visual-modal/internal/simulate"
)

// Dashboard supplies widget snapshots.
type Dashboard interface {
	Snapshot() simulate.Snapshot
}

// Scene renders frames.
type Scene interface {
	Frame(ctx context.Context, cam scene.Camera, elapsed float64) scene.Frame
	Elapsed() float64
	Config() scene.Config
	Stats() scene.CacheStats
}

// Layers reports boundary layer states.
type Layers interface {
	Snapshot() []boundary.LayerStatus
	Ready() bool
}

// Deps are the components the server exposes.
type Deps struct {
	Dashboard Dashboard
	Scene     Scene
	Layers    Layers
	Stream    http.HandlerFunc
	Static    fs.FS
}

// Config holds HTTP server settings.
type Config struct {
	Addr       string
	TrustProxy bool
	Auth       auth.Config
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Layers.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/dashboard", dashboardHandler(deps.Dashboard))
	mux.HandleFunc("GET /api/v1/scene", sceneHandler(deps.Scene))
	mux.HandleFunc("GET /api/v1/scene/stats", sceneStatsHandler(deps.Scene))
	mux.HandleFunc("GET /api/v1/boundaries", boundariesHandler(deps.Layers))
	if deps.Stream != nil {
		mux.HandleFunc("GET /api/v1/stream/dashboard", deps.Stream)
	}
	if deps.Static != nil {
		mux.Handle("GET /", http.FileServerFS(deps.Static))
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
