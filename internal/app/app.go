// Package app assembles the command engine, the resource tree and the
// supporting services from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl"
	"github.com/msto63/netplane/foundation/rcl/executor"
	"github.com/msto63/netplane/internal/audit"
	"github.com/msto63/netplane/internal/server"
	"github.com/msto63/netplane/internal/tree"
	"github.com/msto63/netplane/pkg/core/cache"
	"github.com/msto63/netplane/pkg/core/config"
	grpcx "github.com/msto63/netplane/pkg/core/grpc"
	"github.com/msto63/netplane/pkg/core/health"
	"github.com/msto63/netplane/pkg/core/logging"
	"github.com/msto63/netplane/pkg/core/metrics"
	"github.com/msto63/netplane/pkg/core/version"
)

// reloadDebounce collapses editor save bursts into one reload
const reloadDebounce = 200 * time.Millisecond

// Options configures an App
type Options struct {
	Config *config.Config
	// ConfigPath is watched for changes while Run is active; empty
	// disables hot reload
	ConfigPath string
	// Logger defaults to one built from Config.General
	Logger *mdwlog.Logger
	// DataPlane defaults to the in-memory recorder
	DataPlane tree.DataPlane
}

// App owns every long-lived component of a netplane process
type App struct {
	cfg      *config.Config
	path     string
	logger   *mdwlog.Logger
	plane    *executor.ControlPlane
	dnsCache *cache.Cache
	tree     *tree.Tree
	engine   *rcl.Engine
	metrics  *metrics.Metrics
	health   *health.Registry
	store    *audit.SQLiteStore
	recorder *audit.Recorder
}

// New builds the engine, tree, metrics and, when enabled, the audit
// recorder. Background work starts with Run.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.LoggerConfig{
			ServiceName: cfg.General.Name,
			Level:       cfg.General.LogLevel,
			Format:      cfg.General.LogFormat,
		})
	}

	a := &App{
		cfg:     cfg,
		path:    opts.ConfigPath,
		logger:  logger,
		metrics: metrics.New(),
		health:  health.NewRegistry(cfg.General.Name, version.Platform),
	}

	a.plane = executor.NewControlPlane(logger)
	a.dnsCache = cache.New(cache.Config{
		TTL:      cfg.DNSCache.TTL.Duration,
		MaxItems: cfg.DNSCache.MaxItems,
	})
	a.tree = tree.New(tree.Options{
		Logger:    logger,
		DataPlane: opts.DataPlane,
		DNSCache:  a.dnsCache,
	})

	observers := []executor.Observer{a.metrics}
	if cfg.Audit.Recording() {
		store, err := audit.NewSQLiteStore(audit.Config{Path: cfg.Audit.Path})
		if err != nil {
			a.plane.Close()
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		rc := audit.DefaultRecorderConfig()
		rc.Retention = cfg.Audit.Retention.Duration
		a.store = store
		a.recorder = audit.NewRecorder(store, rc, logger)
		observers = append(observers, a.recorder)
		a.health.WatchAudit(store, a.recorder)
	}

	engine, err := rcl.New(rcl.Options{
		Logger:         logger,
		Handler:        a.tree,
		ControlPlane:   a.plane,
		Observers:      observers,
		MaxInputLength: cfg.Control.MaxLineLength,
		ModifyDisabled: !cfg.Control.Modifiable(),
	})
	if err != nil {
		a.plane.Close()
		if a.store != nil {
			a.store.Close()
		}
		return nil, err
	}
	a.engine = engine

	a.health.WatchControlPlane(a.plane, cfg.Control.QueueWarnDepth, time.Second)
	a.metrics.GaugeFunc("control_plane", "pending_tasks", "Tasks waiting on the control plane.",
		func() float64 { return float64(a.plane.Pending()) })
	a.metrics.GaugeFunc("dns_cache", "entries", "Entries held in the DNS cache.",
		func() float64 { return float64(a.dnsCache.Size()) })
	if a.recorder != nil {
		a.metrics.GaugeFunc("audit", "dropped_total", "Audit entries dropped because the writer fell behind.",
			func() float64 { return float64(a.recorder.Dropped()) })
	}

	return a, nil
}

// Engine returns the command engine
func (a *App) Engine() *rcl.Engine { return a.engine }

// Tree returns the resource tree; use it only from the control plane
func (a *App) Tree() *tree.Tree { return a.tree }

// Config returns the configuration the app was built with
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the root logger
func (a *App) Logger() *mdwlog.Logger { return a.logger }

// Metrics returns the metrics registry wrapper
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Health returns the health registry
func (a *App) Health() *health.Registry { return a.health }

// AuditStore returns the audit store, or nil when auditing is disabled
func (a *App) AuditStore() *audit.SQLiteStore { return a.store }

// RunOptions selects the background services Run starts
type RunOptions struct {
	// Listen starts the gRPC control API and, when enabled, the metrics
	// endpoint
	Listen bool
	// Ready is called once every listener is bound
	Ready func(grpcAddr string)
}

// Run starts the DNS cache sweeper, the audit recorder, the config
// watcher and optionally the network listeners. It blocks until ctx is
// done or one of them fails.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	g, ctx := errgroup.WithContext(ctx)

	sweep := a.cfg.DNSCache.SweepInterval.Duration
	if sweep <= 0 {
		sweep = 10 * time.Second
	}
	g.Go(func() error {
		return a.tree.RunSweeper(ctx, a.plane, sweep)
	})

	if a.recorder != nil {
		g.Go(func() error { return a.recorder.Run(ctx) })
	}

	if a.path != "" {
		g.Go(func() error {
			return config.Watch(ctx, a.path, reloadDebounce, a.onReload)
		})
	}

	grpcAddr := ""
	if opts.Listen {
		gc := grpcx.DefaultServerConfig()
		gc.Host = a.cfg.GRPC.Host
		gc.Port = a.cfg.GRPC.Port
		gc.EnableReflection = a.cfg.GRPC.Reflection

		srv := server.New(server.Options{
			Engine: a.engine,
			Config: gc,
			Logger: a.logger,
			Health: a.health,
		})
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("failed to start control API: %w", err)
		}
		grpcAddr = srv.Address()
		g.Go(func() error { return srv.Serve(ctx) })

		if a.cfg.Metrics.Enabled {
			ms := metrics.NewServer(a.cfg.Metrics.Address(), a.cfg.Metrics.Path, a.metrics, a.logger)
			g.Go(func() error { return ms.Run(ctx) })
		}
	}

	if opts.Ready != nil {
		opts.Ready(grpcAddr)
	}
	a.logger.Info("netplane running", mdwlog.Fields{
		"grpc":           grpcAddr,
		"audit":          a.recorder != nil,
		"modify_enabled": a.engine.ModifyEnabled(),
	})
	return g.Wait()
}

func (a *App) onReload(cfg *config.Config, err error) {
	if err != nil {
		a.logger.WarnWithErr("config reload failed", err, mdwlog.Fields{"path": a.path})
		return
	}
	a.Reload(cfg)
}

// Reload applies the settings that can change without restart: the log
// level and whether mutating commands are accepted
func (a *App) Reload(cfg *config.Config) {
	logging.ApplyLevel(a.logger, cfg.General.LogLevel)
	a.engine.SetModifyEnabled(cfg.Control.Modifiable())
	a.logger.Info("config reloaded", mdwlog.Fields{
		"log_level":      cfg.General.LogLevel,
		"modify_enabled": cfg.Control.Modifiable(),
	})
}

// Close stops the engine and the control plane and closes the audit
// store. Call it after Run has returned.
func (a *App) Close() error {
	a.engine.Close()
	a.plane.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
