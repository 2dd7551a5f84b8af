package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/jalpatel9108-creator/library-management-system/config"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/filestore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/oteladapters"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/postgresstore"
)

const instrumentationName = "library-management-system"

// observability bundles the logger and the optional OpenTelemetry collectors.
type observability struct {
	logger           *slog.Logger
	contextualLogger recordstore.ContextualLogger
	metrics          recordstore.MetricsCollector
	tracing          recordstore.TracingCollector
	closers          []func() error
}

func newObservability(ctx context.Context, cfg config.Config) (*observability, error) {
	obs := &observability{}

	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.InDataDir(cfg.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = logFile
		obs.closers = append(obs.closers, logFile.Close)
	}

	obs.logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if !cfg.ObservabilityEnabled {
		return obs, nil
	}

	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		obs.close()
		return nil, fmt.Errorf("creating observability providers: %w", err)
	}
	obs.closers = append(obs.closers, providers.Shutdown)

	obs.contextualLogger = oteladapters.NewSlogBridgeLogger(instrumentationName)
	obs.metrics = oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))
	obs.tracing = oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))

	return obs, nil
}

func (o *observability) close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func ledgerOptions(cfg config.Config, obs *observability) []ledger.Option {
	options := []ledger.Option{
		ledger.WithFinePerDay(cfg.FinePerDay),
		ledger.WithDefaultDueDays(cfg.DefaultDueDays),
		ledger.WithLogger(obs.logger),
	}

	if obs.contextualLogger != nil {
		options = append(options, ledger.WithContextualLogger(obs.contextualLogger))
	}
	if obs.metrics != nil {
		options = append(options, ledger.WithMetrics(obs.metrics))
	}
	if obs.tracing != nil {
		options = append(options, ledger.WithTracing(obs.tracing))
	}

	return options
}

func openStore(ctx context.Context, cfg config.Config, obs *observability) (recordstore.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return openPostgresStore(ctx, cfg, obs)
	default:
		options := []filestore.Option{filestore.WithLogger(obs.logger)}
		if obs.contextualLogger != nil {
			options = append(options, filestore.WithContextualLogger(obs.contextualLogger))
		}
		if obs.metrics != nil {
			options = append(options, filestore.WithMetrics(obs.metrics))
		}
		if obs.tracing != nil {
			options = append(options, filestore.WithTracing(obs.tracing))
		}

		store, err := filestore.New(cfg.DataDir, options...)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}
}

func openPostgresStore(ctx context.Context, cfg config.Config, obs *observability) (recordstore.Store, func(), error) {
	options := []postgresstore.Option{postgresstore.WithLogger(obs.logger)}
	if obs.contextualLogger != nil {
		options = append(options, postgresstore.WithContextualLogger(obs.contextualLogger))
	}
	if obs.metrics != nil {
		options = append(options, postgresstore.WithMetrics(obs.metrics))
	}
	if obs.tracing != nil {
		options = append(options, postgresstore.WithTracing(obs.tracing))
	}

	var (
		store   *postgresstore.Store
		closeDB func()
		err     error
	)

	switch cfg.DBAdapter {
	case config.AdapterSQL:
		db, openErr := config.OpenSQLDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, nil, openErr
		}
		closeDB = func() { _ = db.Close() }
		store, err = postgresstore.NewFromSQLDB(db, options...)
	case config.AdapterSQLX:
		db, openErr := config.OpenSQLX(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, nil, openErr
		}
		closeDB = func() { _ = db.Close() }
		store, err = postgresstore.NewFromSQLX(db, options...)
	default:
		pool, openErr := config.OpenPGXPool(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, nil, openErr
		}
		closeDB = pool.Close
		store, err = postgresstore.NewFromPGXPool(pool, options...)
	}

	if err == nil {
		err = store.CreateSchema(ctx)
	}
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return store, closeDB, nil
}
