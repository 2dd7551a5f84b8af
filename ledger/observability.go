package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

const (
	// CommandDurationMetric tracks command execution duration.
	CommandDurationMetric = "ledger_command_duration_seconds"
	// CommandCallsMetric counts commands by type and status.
	CommandCallsMetric = "ledger_command_calls_total"
	// CompensationFailedMetric counts rollbacks that could not be persisted.
	CompensationFailedMetric = "ledger_compensation_failed_total"
	// FineChargedMetric records the fine computed on each return.
	FineChargedMetric = "ledger_fine_charged"

	// StatusSuccess indicates the command changed state as requested.
	StatusSuccess = "success"
	// StatusRejected indicates a business rule refused the command.
	StatusRejected = "rejected"
	// StatusError indicates an infrastructure failure.
	StatusError = "error"

	// LogMsgCommandStarted is logged when command processing begins.
	LogMsgCommandStarted = "command handler started"
	// LogMsgCommandCompleted is logged when command processing succeeds.
	LogMsgCommandCompleted = "command handler completed"
	// LogMsgCommandFailed is logged when command processing fails.
	LogMsgCommandFailed = "command handler failed"
	// LogMsgCompensationFailed is logged when a rollback could not be persisted.
	LogMsgCompensationFailed = "rollback failed, books and issues diverged"
	// LogMsgReconciled is logged when Reconcile corrected availability flags.
	LogMsgReconciled = "book availability reconciled"

	LogAttrCommandType     = "command_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrError           = "error"
	LogAttrCorrelationID   = "correlation_id"
	LogAttrBookID          = "book_id"
	LogAttrStudentID       = "student_id"
	LogAttrInconsistency   = "inconsistency"
	LogAttrCorrectedCount  = "corrected_count"

	// SpanNamePrefix prefixes the command type in span names.
	SpanNamePrefix = "ledger."

	CommandIssueBook  = "IssueBook"
	CommandReturnBook = "ReturnBook"
	CommandReconcile  = "Reconcile"
)

// commandObserver follows one command from start to finish.
type commandObserver struct {
	l             *Ledger
	ctx           context.Context
	span          recordstore.SpanContext
	commandType   string
	correlationID string
	start         time.Time
	args          []any
}

func (l *Ledger) startCommand(ctx context.Context, commandType string, args ...any) (context.Context, *commandObserver) {
	o := &commandObserver{
		l:             l,
		ctx:           ctx,
		commandType:   commandType,
		correlationID: uuid.NewString(),
		start:         time.Now(),
		args:          args,
	}

	if l.tracingCollector != nil {
		attrs := map[string]string{
			LogAttrCommandType:   commandType,
			LogAttrCorrelationID: o.correlationID,
		}
		for i := 0; i+1 < len(args); i += 2 {
			attrs[fmt.Sprint(args[i])] = fmt.Sprint(args[i+1])
		}

		ctx, o.span = l.tracingCollector.StartSpan(ctx, SpanNamePrefix+commandType, attrs)
		o.ctx = ctx
	}

	o.log(levelInfo, LogMsgCommandStarted)

	return ctx, o
}

func (o *commandObserver) succeeded(extra ...any) {
	duration := time.Since(o.start)
	o.recordMetrics(StatusSuccess, duration)
	o.finishSpan(StatusSuccess, duration, nil)

	args := append([]any{LogAttrBusinessOutcome, StatusSuccess, LogAttrDurationMS, toMilliseconds(duration)}, extra...)
	o.log(levelInfo, LogMsgCommandCompleted, args...)
}

// failed classifies err: business rule violations are rejections, everything else an error.
func (o *commandObserver) failed(err error) {
	duration := time.Since(o.start)

	status := StatusError
	level := levelError
	if isRejection(err) {
		status = StatusRejected
		level = levelWarn
	}

	o.recordMetrics(status, duration)
	o.finishSpan(status, duration, err)
	o.log(level, LogMsgCommandFailed,
		LogAttrBusinessOutcome, status,
		LogAttrDurationMS, toMilliseconds(duration),
		LogAttrError, err.Error(),
	)
}

func (o *commandObserver) compensationFailed(err error) {
	o.log(levelError, LogMsgCompensationFailed, LogAttrInconsistency, true, LogAttrError, err.Error())

	if o.l.metricsCollector != nil {
		labels := map[string]string{LogAttrCommandType: o.commandType}
		if cm, ok := o.l.metricsCollector.(recordstore.ContextualMetricsCollector); ok {
			cm.IncrementCounterContext(o.ctx, CompensationFailedMetric, labels)
		} else {
			o.l.metricsCollector.IncrementCounter(CompensationFailedMetric, labels)
		}
	}
}

func (o *commandObserver) recordValue(metric string, value float64) {
	if o.l.metricsCollector == nil {
		return
	}

	labels := map[string]string{LogAttrCommandType: o.commandType}
	if cm, ok := o.l.metricsCollector.(recordstore.ContextualMetricsCollector); ok {
		cm.RecordValueContext(o.ctx, metric, value, labels)
		return
	}

	o.l.metricsCollector.RecordValue(metric, value, labels)
}

func (o *commandObserver) recordMetrics(status string, duration time.Duration) {
	if o.l.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		LogAttrCommandType: o.commandType,
		LogAttrStatus:      status,
	}

	if cm, ok := o.l.metricsCollector.(recordstore.ContextualMetricsCollector); ok {
		cm.RecordDurationContext(o.ctx, CommandDurationMetric, duration, labels)
		cm.IncrementCounterContext(o.ctx, CommandCallsMetric, labels)
		return
	}

	o.l.metricsCollector.RecordDuration(CommandDurationMetric, duration, labels)
	o.l.metricsCollector.IncrementCounter(CommandCallsMetric, labels)
}

func (o *commandObserver) finishSpan(status string, duration time.Duration, err error) {
	if o.l.tracingCollector == nil || o.span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}
	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	o.l.tracingCollector.FinishSpan(o.span, status, attrs)
}

type logLevel int

const (
	levelInfo logLevel = iota
	levelWarn
	levelError
)

func (o *commandObserver) log(level logLevel, msg string, extra ...any) {
	args := make([]any, 0, 4+len(o.args)+len(extra))
	args = append(args, LogAttrCommandType, o.commandType, LogAttrCorrelationID, o.correlationID)
	args = append(args, o.args...)
	args = append(args, extra...)

	if cl := o.l.contextualLogger; cl != nil {
		switch level {
		case levelInfo:
			cl.InfoContext(o.ctx, msg, args...)
		case levelWarn:
			cl.WarnContext(o.ctx, msg, args...)
		default:
			cl.ErrorContext(o.ctx, msg, args...)
		}

		return
	}

	if lg := o.l.logger; lg != nil {
		switch level {
		case levelInfo:
			lg.Info(msg, args...)
		case levelWarn:
			lg.Warn(msg, args...)
		default:
			lg.Error(msg, args...)
		}
	}
}

func isRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrNoOpenLoan) ||
		errors.Is(err, ErrInvalidInput)
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
