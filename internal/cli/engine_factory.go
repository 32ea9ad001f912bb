package cli

import (
	"context"
	"fmt"
	"log/slog"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/internal/config"
	"github.com/edisonylee/turbocommerce-sub001/internal/logging"
	"github.com/edisonylee/turbocommerce-sub001/internal/workloads"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/file"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/redis"
	"github.com/edisonylee/turbocommerce-sub001/pkg/observability"
	"github.com/edisonylee/turbocommerce-sub001/pkg/persistence/middleware"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
	"github.com/edisonylee/turbocommerce-sub001/pkg/replay"
)

// App bundles what every command needs: configuration, logger and the
// workload catalog over the seeded fixture fetcher.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Fetcher *memory.Fetcher
	Catalog workloads.Catalog

	store  ports.RecordingStore
	closer ports.RecordingStore
}

// LoadOptions are the global CLI flags.
type LoadOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewApp loads the configuration and builds the workload catalog.
func NewApp(opts LoadOptions) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	f := memory.NewFetcher()
	cat, err := cfg.Catalog(f)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logging.New(level, cfg.Logging.Format),
		Fetcher: f,
		Catalog: cat,
	}, nil
}

// RecordingStore opens the configured recording store once.
func (a *App) RecordingStore(ctx context.Context) (ports.RecordingStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	rc := a.Config.Recorder
	var store ports.RecordingStore
	switch rc.Store {
	case config.StoreFile:
		store = file.NewStore(rc.Dir)
	case config.StoreRedis:
		opts := []redis.Option{redis.WithTTL(rc.TTL)}
		if rc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(rc.Redis.Prefix))
		}
		s := redis.New(rc.Redis.Addr, rc.Redis.Password, rc.Redis.DB, opts...)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis recording store at %s: %w", rc.Redis.Addr, err)
		}
		store = s
	default:
		store = memory.NewStore()
	}
	a.closer = store

	var mws []middleware.Middleware
	if len(rc.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(rc.Redact))
	}
	key, err := rc.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	a.store = middleware.Chain(store, mws...)
	return a.store, nil
}

// Close releases the recording store.
func (a *App) Close() error {
	if c, ok := a.closer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Engine builds the streaming engine from the configuration. Responses are
// recorded when the recorder is enabled.
func (a *App) Engine(ctx context.Context, extra ...turbo.Option) (*turbo.Engine, error) {
	policy, err := a.Config.FlushPolicy()
	if err != nil {
		return nil, err
	}

	opts := []turbo.Option{
		turbo.WithLogger(a.Logger),
		turbo.WithOrdering(a.Config.OrderingMode()),
		turbo.WithFlushPolicy(policy),
		turbo.WithMaxInFlight(a.Config.Scheduler.MaxInFlight),
		turbo.WithMaxBufferedBytes(a.Config.Scheduler.MaxBufferedBytes),
		turbo.WithLifecycleHooks(observability.LogHooks(a.Logger)),
	}

	var fetcher ports.Fetcher = a.Fetcher
	if a.Config.Recorder.Enabled {
		store, err := a.RecordingStore(ctx)
		if err != nil {
			return nil, err
		}
		rec := replay.NewRecorder(store, replay.WithLogger(a.Logger))
		fetcher = rec.Fetcher(fetcher)
		opts = append(opts, turbo.WithRecorder(rec))
	}
	opts = append(opts, turbo.WithRegistry(a.Catalog.Registry(fetcher)))

	eng, err := turbo.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}
