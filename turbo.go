package turbo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"github.com/edisonylee/turbocommerce-sub001/pkg/registry"
	"github.com/edisonylee/turbocommerce-sub001/pkg/replay"
)

// Result is the terminal report of a streamed response.
type Result = runtime.Result

// Engine is the high-level entry point of the library.
// It resolves workloads by name and streams them through the section scheduler.
type Engine struct {
	registry  *registry.Registry
	scheduler *runtime.Scheduler
	ordering  domain.OrderingMode
	factory   runtime.OrderingFactory
	recorder  *replay.Recorder
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	schedOpts []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry uses reg to resolve workloads.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithWorkloads registers workloads in the engine's registry.
func WithWorkloads(workloads ...ports.Workload) Option {
	return func(e *Engine) {
		if e.registry == nil {
			e.registry = registry.NewRegistry()
		}
		for _, w := range workloads {
			e.registry.Register(w)
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOrdering selects document or ready ordering (default: document).
func WithOrdering(mode domain.OrderingMode) Option {
	return func(e *Engine) {
		e.ordering = mode
	}
}

// WithOrderingFactory installs a custom ordering strategy, overriding WithOrdering.
func WithOrderingFactory(f runtime.OrderingFactory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

// WithFlushPolicy sets when stream events are flushed.
func WithFlushPolicy(p runtime.FlushPolicy) Option {
	return func(e *Engine) {
		e.schedOpts = append(e.schedOpts, runtime.WithFlushPolicy(p))
	}
}

// WithFallbackStrategy replaces the default fallback decision table.
func WithFallbackStrategy(f runtime.FallbackStrategy) Option {
	return func(e *Engine) {
		e.schedOpts = append(e.schedOpts, runtime.WithFallbackStrategy(f))
	}
}

// WithMaxInFlight bounds concurrently rendering sections per response.
func WithMaxInFlight(n int) Option {
	return func(e *Engine) {
		e.schedOpts = append(e.schedOpts, runtime.WithMaxInFlight(n))
	}
}

// WithMaxBufferedBytes bounds ready-but-blocked content per response.
func WithMaxBufferedBytes(n int) Option {
	return func(e *Engine) {
		e.schedOpts = append(e.schedOpts, runtime.WithMaxBufferedBytes(n))
	}
}

// WithRecorder records every response for replay. Workload fetchers must be
// decorated with r.Fetcher for fetch results to be captured.
func WithRecorder(r *replay.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.factory == nil {
		f, err := runtime.OrderingFor(eng.ordering)
		if err != nil {
			return nil, err
		}
		eng.factory = f
	}
	if eng.ordering == "" {
		eng.ordering = domain.OrderDocument
	}

	schedOpts := []runtime.Option{
		runtime.WithOrdering(eng.factory),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	eng.scheduler = runtime.NewScheduler(append(schedOpts, eng.schedOpts...)...)
	return eng, nil
}

// Workloads lists the registered workload names.
func (e *Engine) Workloads() []string {
	return e.registry.Names()
}

// Workload looks up a registered workload.
func (e *Engine) Workload(name string) (ports.Workload, error) {
	return e.registry.Get(name)
}

// Render streams the named workload for rc into t.
//
// It returns domain.ErrWorkloadNotFound (wrapped) with a nil Result when the
// workload is unknown. Every other failure comes with an Aborted Result whose
// PrefixFlushed reports whether bytes already reached the client.
func (e *Engine) Render(ctx context.Context, workload string, rc domain.RequestContext, t ports.Transport) (*Result, error) {
	w, err := e.registry.Get(workload)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With("workload", workload, "request_id", rc.ID)

	if e.recorder != nil {
		e.recorder.Begin(rc, workload, e.ordering)
	}

	shell, sections, err := w.Build(domain.ContextWithRequestID(ctx, rc.ID), rc)
	if err != nil {
		if e.recorder != nil {
			e.recorder.Discard(rc.ID)
		}
		return e.buildFailed(ctx, rc, logger, err)
	}

	res, runErr := e.scheduler.Run(ctx, rc, shell, sections, t)
	if e.recorder != nil {
		if _, err := e.recorder.Finish(context.WithoutCancel(ctx), rc.ID, res); err != nil {
			logger.Warn("recording failed", "err", err)
		}
	}
	return res, runErr
}

func (e *Engine) buildFailed(ctx context.Context, rc domain.RequestContext, logger *slog.Logger, err error) (*Result, error) {
	err = &domain.ShellRenderError{Err: fmt.Errorf("build: %w", err)}
	logger.Error("workload build failed", "err", err)
	if e.hooks.OnResponseAborted != nil {
		e.hooks.OnResponseAborted(ctx, &domain.ResponseAborted{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventResponseAborted, RequestID: rc.ID},
			Reason:    "shell_render",
		})
	}
	return &Result{RequestID: rc.ID, Status: domain.StatusAborted, Reason: "shell_render"}, err
}
