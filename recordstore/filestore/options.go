package filestore

import (
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// Option defines a functional option for configuring a FileStore.
type Option func(*FileStore) error

// WithFileName overrides the file name used for one collection.
func WithFileName(kind recordstore.Kind, name string) Option {
	return func(fs *FileStore) error {
		if name == "" {
			return recordstore.ErrEmptyFileName
		}

		fs.fileNames[kind] = name

		return nil
	}
}

// WithLogger sets the logger for the FileStore.
// Debug level receives every primitive with its record count and duration;
// Error level receives failed reads and writes.
func WithLogger(logger recordstore.Logger) Option {
	return func(fs *FileStore) error {
		fs.instrument.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the FileStore.
func WithContextualLogger(logger recordstore.ContextualLogger) Option {
	return func(fs *FileStore) error {
		fs.instrument.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the FileStore.
// It receives operation durations, touched record counts and storage errors.
func WithMetrics(collector recordstore.MetricsCollector) Option {
	return func(fs *FileStore) error {
		fs.instrument.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the FileStore.
func WithTracing(collector recordstore.TracingCollector) Option {
	return func(fs *FileStore) error {
		fs.instrument.Tracing = collector
		return nil
	}
}
