// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rovshanmuradov/bondcurve/internal/config"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/engine"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"github.com/rovshanmuradov/bondcurve/internal/storage/memory"
	"github.com/rovshanmuradov/bondcurve/internal/storage/pebble"
	"github.com/rovshanmuradov/bondcurve/internal/storage/postgres"
	"github.com/rovshanmuradov/bondcurve/internal/utils/metrics"
	"go.uber.org/zap"
)

// Runner owns every long-lived component behind an Engine.
type Runner struct {
	logger   *zap.Logger
	config   *config.Config
	ledger   *custody.Ledger
	store    storage.CurveStore
	history  storage.History
	closers  []func() error
	bus      *events.Bus
	subs     []events.Subscription
	registry *prometheus.Registry
	engine   *engine.Engine
}

// Options override parts of the wiring.
type Options struct {
	// Clock replaces time.Now for the engine.
	Clock func() time.Time
	// Ledger replaces the fresh in-memory custody ledger.
	Ledger *custody.Ledger
}

// NewRunner builds the component graph described by cfg.
func NewRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Runner, error) {
	r := &Runner{
		logger:   logger.Named("runner"),
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	r.ledger = opts.Ledger
	if r.ledger == nil {
		r.ledger = custody.NewLedger(cfg.ProgramKey(custody.DefaultProgramID), cfg.RentExemptLamports, logger)
	}

	mem := memory.New()
	switch cfg.Storage.Driver {
	case config.DriverPebble:
		store, err := pebble.Open(cfg.Storage.Path, cfg.Storage.CacheSize, logger)
		if err != nil {
			return nil, err
		}
		r.store = store
		r.closers = append(r.closers, store.Close)
	default:
		r.store = mem
	}

	r.history = mem
	if cfg.PostgresURL != "" {
		h, err := postgres.NewHistory(ctx, cfg.PostgresURL, logger, postgres.DefaultOptions())
		if err != nil {
			r.close()
			return nil, err
		}
		if err := h.RunMigrations(); err != nil {
			_ = h.Close()
			r.close()
			return nil, err
		}
		r.history = h
		r.closers = append(r.closers, h.Close)
	}

	collector, err := metrics.NewCollector(r.registry)
	if err != nil {
		r.close()
		return nil, err
	}

	r.bus = events.NewBus(logger, cfg.EventBufferSize)
	r.subs = engine.RecordHistory(r.bus, r.history, logger)

	r.engine, err = engine.New(r.ledger, r.store, r.bus, collector, engine.Options{
		FeeBasisPoints: cfg.FeeBasisPoints,
		FeeRecipient:   cfg.FeeRecipientKey(),
		CreateOptions:  cfg.CreateOptions(),
		PersistWorkers: cfg.PersistWorkers,
		Clock:          opts.Clock,
	}, logger)
	if err != nil {
		_ = r.bus.Shutdown(ctx)
		r.close()
		return nil, err
	}

	r.logger.Info("Runner initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("postgres_history", cfg.PostgresURL != ""),
		zap.Uint64("fee_bps", cfg.FeeBasisPoints))
	return r, nil
}

// Start restores persisted curves. Curves whose snapshot disagrees with
// custody are logged and skipped.
func (r *Runner) Start(ctx context.Context) error {
	n, err := r.engine.Restore(ctx)
	if err != nil {
		r.logger.Warn("Some curves were not restored", zap.Error(err))
	}
	r.logger.Info("Runner started", zap.Int("curves", n))
	return nil
}

func (r *Runner) Engine() *engine.Engine { return r.engine }

func (r *Runner) Ledger() *custody.Ledger { return r.ledger }

func (r *Runner) Store() storage.CurveStore { return r.store }

func (r *Runner) History() storage.History { return r.history }

// Registry holds the engine's metrics.
func (r *Runner) Registry() *prometheus.Registry { return r.registry }

// Shutdown flushes curves, drains pending events and closes the stores.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.logger.Info("Runner shutting down")

	var errs []error
	if err := r.engine.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := r.bus.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	for _, s := range r.subs {
		s.Unsubscribe()
	}
	if err := r.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runner) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
