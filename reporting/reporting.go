// Package reporting derives read-only views from the loan ledger: the issued report,
// the overdue report, a student's history and a student's open loans.
package reporting

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// LoanSource is the part of the ledger the reports read from. *ledger.Ledger implements it.
type LoanSource interface {
	ListOverdue(ctx context.Context, asOf time.Time) iter.Seq2[ledger.OverdueLoan, error]
	Now() time.Time
}

// IssuedRow is one line of the issued report and of a student's history.
type IssuedRow struct {
	BookID     recordstore.ID
	StudentID  recordstore.ID
	IssueTime  time.Time
	DueTime    time.Time
	DueDays    int
	Returned   bool
	ReturnTime time.Time
}

// OverdueRow is one line of the overdue report.
type OverdueRow struct {
	BookID      recordstore.ID
	StudentID   recordstore.ID
	IssueTime   time.Time
	DueTime     time.Time
	DaysOverdue int64
	Fine        int64
}

// Reporter builds reports and renders them in the configured time zone.
type Reporter struct {
	issues   recordstore.Collection[recordstore.Issue]
	loans    LoanSource
	location *time.Location
}

// Option defines a functional option for configuring a Reporter.
type Option func(*Reporter)

// WithLocation sets the time zone dates are printed in. Default is time.Local.
func WithLocation(location *time.Location) Option {
	return func(r *Reporter) {
		if location != nil {
			r.location = location
		}
	}
}

// New creates a Reporter.
func New(store recordstore.Store, loans LoanSource, options ...Option) *Reporter {
	r := &Reporter{
		issues:   store.Issues(),
		loans:    loans,
		location: time.Local,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Issued returns every issue record in insertion order.
func (r *Reporter) Issued(ctx context.Context) ([]IssuedRow, error) {
	return r.issuedRows(ctx, func(recordstore.Issue) bool { return true })
}

// History returns every issue record of one student in insertion order.
func (r *Reporter) History(ctx context.Context, studentID recordstore.ID) ([]IssuedRow, error) {
	return r.issuedRows(ctx, func(i recordstore.Issue) bool { return i.StudentID == studentID })
}

// OpenLoans returns the books one student currently holds.
func (r *Reporter) OpenLoans(ctx context.Context, studentID recordstore.ID) ([]IssuedRow, error) {
	return r.issuedRows(ctx, func(i recordstore.Issue) bool { return i.StudentID == studentID && i.IsOpen() })
}

// Overdue returns the loans overdue at asOf, ordered by due time, then book id, then student id.
func (r *Reporter) Overdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error) {
	rows := make([]OverdueRow, 0)

	for loan, err := range r.loans.ListOverdue(ctx, asOf) {
		if err != nil {
			return nil, err
		}

		rows = append(rows, OverdueRow{
			BookID:      loan.Issue.BookID,
			StudentID:   loan.Issue.StudentID,
			IssueTime:   loan.Issue.IssueTime,
			DueTime:     loan.Issue.DueTime(),
			DaysOverdue: loan.DaysLate,
			Fine:        loan.Fine,
		})
	}

	slices.SortStableFunc(rows, func(a, b OverdueRow) int {
		return cmp.Or(
			a.DueTime.Compare(b.DueTime),
			cmp.Compare(a.BookID, b.BookID),
			cmp.Compare(a.StudentID, b.StudentID),
		)
	})

	return rows, nil
}

// OverdueNow returns the loans overdue at the ledger's current time.
func (r *Reporter) OverdueNow(ctx context.Context) ([]OverdueRow, error) {
	return r.Overdue(ctx, r.loans.Now())
}

func (r *Reporter) issuedRows(ctx context.Context, keep func(recordstore.Issue) bool) ([]IssuedRow, error) {
	issues, err := r.issues.LoadAll(ctx)
	if err != nil {
		return nil, errors.Join(ledger.ErrStorageUnavailable, err)
	}

	rows := make([]IssuedRow, 0, len(issues))
	for _, i := range issues {
		if !keep(i) {
			continue
		}

		rows = append(rows, IssuedRow{
			BookID:     i.BookID,
			StudentID:  i.StudentID,
			IssueTime:  i.IssueTime,
			DueTime:    i.DueTime(),
			DueDays:    i.DueDays,
			Returned:   i.Returned,
			ReturnTime: i.ReturnTime,
		})
	}

	return rows, nil
}
