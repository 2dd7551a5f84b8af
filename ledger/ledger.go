package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// Ledger issues and returns books against a record store.
type Ledger struct {
	mu               sync.Mutex
	store            recordstore.Store
	clock            func() time.Time
	policy           FinePolicy
	defaultDueDays   int
	logger           recordstore.Logger
	contextualLogger recordstore.ContextualLogger
	metricsCollector recordstore.MetricsCollector
	tracingCollector recordstore.TracingCollector
}

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithClock replaces time.Now as the source of issue and return times.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) error {
		if clock == nil {
			return fmt.Errorf("%w: clock must not be nil", ErrInvalidInput)
		}

		l.clock = clock

		return nil
	}
}

// WithFinePerDay sets the fine charged per started late day.
func WithFinePerDay(perDay int64) Option {
	return func(l *Ledger) error {
		if perDay < 0 {
			return fmt.Errorf("%w: fine per day must not be negative", ErrInvalidInput)
		}

		l.policy = FinePolicy{PerDay: perDay}

		return nil
	}
}

// WithDefaultDueDays sets the loan period used when IssueBook gets none.
func WithDefaultDueDays(days int) Option {
	return func(l *Ledger) error {
		if days <= 0 || days > recordstore.MaxDueDays {
			return fmt.Errorf("%w: default due days must lie in 1..%d", ErrInvalidInput, recordstore.MaxDueDays)
		}

		l.defaultDueDays = days

		return nil
	}
}

// WithLogger sets the logger receiving command started, completed and failed messages.
func WithLogger(logger recordstore.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger recordstore.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for command durations, calls and fines.
func WithMetrics(collector recordstore.MetricsCollector) Option {
	return func(l *Ledger) error {
		l.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector; every command gets one span.
func WithTracing(collector recordstore.TracingCollector) Option {
	return func(l *Ledger) error {
		l.tracingCollector = collector
		return nil
	}
}

// NewLedger creates a Ledger on store.
func NewLedger(store recordstore.Store, options ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store must not be nil", ErrInvalidInput)
	}

	l := &Ledger{
		store:          store,
		clock:          time.Now,
		policy:         DefaultFinePolicy(),
		defaultDueDays: DefaultDueDays,
	}

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Policy returns the fine policy of the ledger.
func (l *Ledger) Policy() FinePolicy {
	return l.policy
}

// DefaultDueDays returns the loan period used when IssueBook gets no positive dueDays.
func (l *Ledger) DefaultDueDays() int {
	return l.defaultDueDays
}

// Now returns the current time of the ledger's clock.
func (l *Ledger) Now() time.Time {
	return l.clock()
}

// ReturnResult is the closed loan together with its lateness at return time.
type ReturnResult struct {
	Issue recordstore.Issue
	Assessment
}

// IssueBook lends bookID to studentID for dueDays days (DefaultDueDays when dueDays <= 0).
// A period longer than recordstore.MaxDueDays fails with ErrInvalidInput.
// The Book is marked unavailable first and the new Issue appended second; if the append
// fails the Book is restored.
func (l *Ledger) IssueBook(
	ctx context.Context,
	studentID recordstore.ID,
	bookID recordstore.ID,
	dueDays int,
) (recordstore.Issue, error) {
	ctx, obs := l.startCommand(ctx, CommandIssueBook, LogAttrStudentID, studentID, LogAttrBookID, bookID)

	issue, err := l.issueBook(ctx, obs, studentID, bookID, dueDays)
	if err != nil {
		obs.failed(err)
		return recordstore.Issue{}, err
	}

	obs.succeeded()

	return issue, nil
}

func (l *Ledger) issueBook(
	ctx context.Context,
	obs *commandObserver,
	studentID recordstore.ID,
	bookID recordstore.ID,
	dueDays int,
) (recordstore.Issue, error) {
	if !validID(studentID) || !validID(bookID) {
		return recordstore.Issue{}, fmt.Errorf("%w: ids must be positive", ErrInvalidInput)
	}

	if dueDays > recordstore.MaxDueDays {
		return recordstore.Issue{}, fmt.Errorf("%w: due days must not exceed %d", ErrInvalidInput, recordstore.MaxDueDays)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	students, err := l.store.Students().LoadAll(ctx)
	if err != nil {
		return recordstore.Issue{}, storageError(err)
	}

	books, err := l.store.Books().LoadAll(ctx)
	if err != nil {
		return recordstore.Issue{}, storageError(err)
	}

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return recordstore.Issue{}, storageError(err)
	}

	if err = decideIssue(projectIssue(students, books, issues, studentID, bookID)); err != nil {
		return recordstore.Issue{}, err
	}

	issue := recordstore.BuildOpenIssue(bookID, studentID, l.clock(), normalizeDueDays(dueDays, l.defaultDueDays))
	updated, _ := withAvailability(books, bookID, false)

	if err = l.store.Books().RewriteAll(ctx, updated); err != nil {
		return recordstore.Issue{}, storageError(err)
	}

	if err = l.store.Issues().Append(ctx, issue); err != nil {
		return recordstore.Issue{}, l.rollback(ctx, obs, err, func(ctx context.Context) error {
			return l.store.Books().RewriteAll(ctx, books)
		})
	}

	return issue, nil
}

// ReturnBook closes the open loan of bookID held by studentID and reports its lateness.
// The Issue is closed first and the Book marked available second; if the Book write
// fails the Issue collection is restored.
func (l *Ledger) ReturnBook(
	ctx context.Context,
	studentID recordstore.ID,
	bookID recordstore.ID,
) (ReturnResult, error) {
	ctx, obs := l.startCommand(ctx, CommandReturnBook, LogAttrStudentID, studentID, LogAttrBookID, bookID)

	result, err := l.returnBook(ctx, obs, studentID, bookID)
	if err != nil {
		obs.failed(err)
		return ReturnResult{}, err
	}

	obs.recordValue(FineChargedMetric, float64(result.Fine))
	obs.succeeded("days_late", result.DaysLate, "fine", result.Fine)

	return result, nil
}

func (l *Ledger) returnBook(
	ctx context.Context,
	obs *commandObserver,
	studentID recordstore.ID,
	bookID recordstore.ID,
) (ReturnResult, error) {
	if !validID(studentID) || !validID(bookID) {
		return ReturnResult{}, fmt.Errorf("%w: ids must be positive", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return ReturnResult{}, storageError(err)
	}

	idx := findOpenLoanIndex(issues, studentID, bookID)
	if idx < 0 {
		return ReturnResult{}, ErrNoOpenLoan
	}

	books, err := l.store.Books().LoadAll(ctx)
	if err != nil {
		return ReturnResult{}, storageError(err)
	}

	closed := issues[idx]
	closed.Returned = true
	closed.ReturnTime = recordstore.ToStoredTime(l.clock())

	updatedIssues := make([]recordstore.Issue, len(issues))
	copy(updatedIssues, issues)
	updatedIssues[idx] = closed

	if err = l.store.Issues().RewriteAll(ctx, updatedIssues); err != nil {
		return ReturnResult{}, storageError(err)
	}

	// A book deleted behind the ledger's back leaves nothing to flip; the loan is still closed.
	if updatedBooks, found := withAvailability(books, bookID, true); found {
		if err = l.store.Books().RewriteAll(ctx, updatedBooks); err != nil {
			return ReturnResult{}, l.rollback(ctx, obs, err, func(ctx context.Context) error {
				return l.store.Issues().RewriteAll(ctx, issues)
			})
		}
	}

	return ReturnResult{
		Issue:      closed,
		Assessment: l.policy.Assess(closed, closed.ReturnTime),
	}, nil
}

// rollback undoes the first write of a command after its second write failed.
// The rollback runs even when ctx is already canceled.
func (l *Ledger) rollback(
	ctx context.Context,
	obs *commandObserver,
	cause error,
	undo func(ctx context.Context) error,
) error {
	undoErr := undo(context.WithoutCancel(ctx))
	if undoErr == nil {
		return storageError(cause)
	}

	obs.compensationFailed(undoErr)

	return errors.Join(ErrStorageUnavailable, ErrInconsistentState, cause, undoErr)
}
