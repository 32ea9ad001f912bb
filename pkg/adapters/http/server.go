package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// Engine is the streaming renderer behind the HTTP surface. *turbo.Engine
// implements it.
type Engine interface {
	Render(ctx context.Context, workload string, rc domain.RequestContext, t ports.Transport) (*turbo.Result, error)
	Workloads() []string
}

// Server serves streamed pages.
type Server struct {
	Engine  Engine
	Logger  *slog.Logger
	Timeout time.Duration
}

// Option configures the handler built by NewHandler.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	timeout     time.Duration
	metrics     http.Handler
	metricsPath string
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRequestTimeout bounds each page render.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMetrics mounts a metrics handler at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(o *options) {
		o.metricsPath = path
		o.metrics = h
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	server := &Server{Engine: engine, Logger: o.logger, Timeout: o.timeout}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/pages", server.ListPages)
	r.Get("/pages/{workload}", server.RenderPage)
	r.Get("/pages/{workload}/{id}", server.RenderPage)
	if o.metrics != nil {
		r.Method(http.MethodGet, o.metricsPath, o.metrics)
	}
	return r
}

// RenderPage handles GET /pages/{workload}[/{id}].
func (s *Server) RenderPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "workload")
	params := map[string]string{}
	if id := chi.URLParam(r, "id"); id != "" {
		params["id"] = id
	}
	rc := domain.NewRequestContext(r.Method, r.URL.Path,
		domain.WithParams(params),
		domain.WithQuery(first(r.URL.Query())),
		domain.WithHeaders(first(r.Header)),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Request-Id", rc.ID.String())

	ctx := r.Context()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	logger := s.Logger.With("workload", name, "request_id", rc.ID)
	tr := NewTransport(w)
	res, err := s.Engine.Render(ctx, name, rc, tr)
	switch {
	case err == nil:
		logger.Debug("page streamed", "bytes", res.Written)
	case res == nil && errors.Is(err, domain.ErrWorkloadNotFound):
		http.Error(w, "unknown workload", http.StatusNotFound)
	case tr.Committed():
		// The status line is gone; the client sees a truncated body.
		logger.Warn("page stream interrupted", "err", err, "reason", reason(res))
	case errors.Is(err, domain.ErrSectionAborted):
		logger.Error("page aborted", "err", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	default:
		logger.Error("page render failed", "err", err, "reason", reason(res))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ListPages handles GET /pages.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"workloads": s.Engine.Workloads()})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"app":     "turbo-http",
		"version": strings.TrimSpace(turbo.Version),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func first(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func reason(res *turbo.Result) string {
	if res == nil {
		return ""
	}
	return res.Reason
}
