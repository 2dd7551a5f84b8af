// Package helper provides test doubles shared by the library packages' tests:
// a capturing slog handler and spies for the metrics and tracing collector interfaces.
package helper
