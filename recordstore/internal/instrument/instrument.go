// Package instrument holds the logging, metrics and tracing plumbing shared by the storage backends.
package instrument

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// Metric, span and log names emitted by the storage backends.
const (
	MetricOperationDuration = "recordstore_operation_duration_seconds"
	MetricRecordsTouched    = "recordstore_records_touched"
	MetricStorageErrors     = "recordstore_storage_errors_total"

	SpanNamePrefix = "recordstore."

	SpanAttrBackend     = "backend"
	SpanAttrCollection  = "collection"
	SpanAttrOperation   = "operation"
	SpanAttrRecordCount = "record_count"
	SpanAttrDurationMS  = "duration_ms"
	SpanAttrErrorType   = "error_type"

	StatusSuccess = "success"
	StatusError   = "error"

	OperationLoadAll    = "load_all"
	OperationAppend     = "append"
	OperationRewriteAll = "rewrite_all"
	OperationFindByID   = "find_by_id"

	LogMsgOperation   = "recordstore operation: "
	LogMsgFailed      = "recordstore operation failed: "
	LogAttrError      = "error"
	LogAttrCollection = "collection"
	LogAttrCount      = "record_count"
	LogAttrDurationMS = "duration_ms"
)

// Instrument carries the optional observability collaborators of a backend.
// Every field may be nil; nil collaborators are skipped.
type Instrument struct {
	Backend          string
	Logger           recordstore.Logger
	ContextualLogger recordstore.ContextualLogger
	Metrics          recordstore.MetricsCollector
	Tracing          recordstore.TracingCollector
}

// Observer follows a single storage operation from start to finish.
type Observer struct {
	in        *Instrument
	ctx       context.Context
	span      recordstore.SpanContext
	kind      recordstore.Kind
	operation string
	start     time.Time
}

// Start opens a span for the operation and returns the derived context with an Observer.
func (in *Instrument) Start(ctx context.Context, kind recordstore.Kind, operation string) (context.Context, *Observer) {
	obs := &Observer{in: in, ctx: ctx, kind: kind, operation: operation, start: time.Now()}

	if in.Tracing != nil {
		ctx, obs.span = in.Tracing.StartSpan(ctx, SpanNamePrefix+operation, map[string]string{
			SpanAttrBackend:    in.Backend,
			SpanAttrCollection: string(kind),
			SpanAttrOperation:  operation,
		})
		obs.ctx = ctx
	}

	return ctx, obs
}

// Success records a successful operation that touched count records.
func (o *Observer) Success(count int) {
	duration := time.Since(o.start)

	o.recordDuration(duration, StatusSuccess)
	o.recordValue(MetricRecordsTouched, float64(count), StatusSuccess)

	if o.span != nil {
		o.span.SetStatus(StatusSuccess)
		o.span.AddAttribute(SpanAttrRecordCount, fmt.Sprintf("%d", count))
		o.span.AddAttribute(SpanAttrDurationMS, fmt.Sprintf("%.2f", ToMilliseconds(duration)))
		o.in.Tracing.FinishSpan(o.span, StatusSuccess, map[string]string{SpanAttrRecordCount: fmt.Sprintf("%d", count)})
	}

	args := []any{LogAttrCollection, string(o.kind), LogAttrCount, count, LogAttrDurationMS, ToMilliseconds(duration)}
	if o.in.Logger != nil {
		o.in.Logger.Debug(LogMsgOperation+o.operation, args...)
	}
	if o.in.ContextualLogger != nil {
		o.in.ContextualLogger.DebugContext(o.ctx, LogMsgOperation+o.operation, args...)
	}
}

// Failure records a failed operation; errorType is a short machine-readable classification.
func (o *Observer) Failure(errorType string, err error) {
	duration := time.Since(o.start)

	o.recordDuration(duration, StatusError)

	if o.in.Metrics != nil {
		labels := map[string]string{
			SpanAttrBackend:    o.in.Backend,
			SpanAttrCollection: string(o.kind),
			SpanAttrOperation:  o.operation,
			SpanAttrErrorType:  errorType,
		}
		if cm, ok := o.in.Metrics.(recordstore.ContextualMetricsCollector); ok {
			cm.IncrementCounterContext(o.ctx, MetricStorageErrors, labels)
		} else {
			o.in.Metrics.IncrementCounter(MetricStorageErrors, labels)
		}
	}

	if o.span != nil {
		o.span.SetStatus(StatusError)
		o.span.AddAttribute(SpanAttrErrorType, errorType)
		o.in.Tracing.FinishSpan(o.span, StatusError, map[string]string{SpanAttrErrorType: errorType})
	}

	args := []any{LogAttrError, err.Error(), LogAttrCollection, string(o.kind), LogAttrDurationMS, ToMilliseconds(duration)}
	if o.in.Logger != nil {
		o.in.Logger.Error(LogMsgFailed+o.operation, args...)
	}
	if o.in.ContextualLogger != nil {
		o.in.ContextualLogger.ErrorContext(o.ctx, LogMsgFailed+o.operation, args...)
	}
}

func (o *Observer) labels(status string) map[string]string {
	return map[string]string{
		SpanAttrBackend:    o.in.Backend,
		SpanAttrCollection: string(o.kind),
		SpanAttrOperation:  o.operation,
		"status":           status,
	}
}

func (o *Observer) recordDuration(duration time.Duration, status string) {
	if o.in.Metrics == nil {
		return
	}

	if cm, ok := o.in.Metrics.(recordstore.ContextualMetricsCollector); ok {
		cm.RecordDurationContext(o.ctx, MetricOperationDuration, duration, o.labels(status))
		return
	}

	o.in.Metrics.RecordDuration(MetricOperationDuration, duration, o.labels(status))
}

func (o *Observer) recordValue(metric string, value float64, status string) {
	if o.in.Metrics == nil {
		return
	}

	if cm, ok := o.in.Metrics.(recordstore.ContextualMetricsCollector); ok {
		cm.RecordValueContext(o.ctx, metric, value, o.labels(status))
		return
	}

	o.in.Metrics.RecordValue(metric, value, o.labels(status))
}

// ToMilliseconds converts a duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
