package postgresstore

import (
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithTableName sets the table name used for one collection.
func WithTableName(kind recordstore.Kind, tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return recordstore.ErrEmptyTableName
		}

		s.tableNames[kind] = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// Debug level: every executed SQL statement and every primitive with its duration.
// Error level: failed queries and statements.
func WithLogger(logger recordstore.Logger) Option {
	return func(s *Store) error {
		s.instrument.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
func WithContextualLogger(logger recordstore.ContextualLogger) Option {
	return func(s *Store) error {
		s.instrument.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector recordstore.MetricsCollector) Option {
	return func(s *Store) error {
		s.instrument.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector recordstore.TracingCollector) Option {
	return func(s *Store) error {
		s.instrument.Tracing = collector
		return nil
	}
}
