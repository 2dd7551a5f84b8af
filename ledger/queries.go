package ledger

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// OverdueLoan is an open loan past its due time together with its current lateness.
type OverdueLoan struct {
	Issue recordstore.Issue
	Assessment
}

// ListOverdue yields every open Issue whose due time lies strictly before asOf, in
// insertion order. Each range over the sequence re-reads the Issue collection under
// the ledger lock, which is released before the first yield.
// A storage failure is yielded once as the error of the last element.
func (l *Ledger) ListOverdue(ctx context.Context, asOf time.Time) iter.Seq2[OverdueLoan, error] {
	return func(yield func(OverdueLoan, error) bool) {
		issues, err := l.loadIssues(ctx)
		if err != nil {
			yield(OverdueLoan{}, err)
			return
		}

		for _, issue := range issues {
			if !IsOverdue(issue, asOf) {
				continue
			}

			if !yield(OverdueLoan{Issue: issue, Assessment: l.policy.Assess(issue, asOf)}, nil) {
				return
			}
		}
	}
}

// FindOpenLoan returns the open Issue of bookID, if any.
func (l *Ledger) FindOpenLoan(ctx context.Context, bookID recordstore.ID) (recordstore.Issue, bool, error) {
	issues, err := l.loadIssues(ctx)
	if err != nil {
		return recordstore.Issue{}, false, err
	}

	idx := slices.IndexFunc(issues, openLoanOfBook(bookID))
	if idx < 0 {
		return recordstore.Issue{}, false, nil
	}

	return issues[idx], true, nil
}

// HasOpenLoan reports whether studentID holds at least one open loan.
func (l *Ledger) HasOpenLoan(ctx context.Context, studentID recordstore.ID) (bool, error) {
	issues, err := l.loadIssues(ctx)
	if err != nil {
		return false, err
	}

	return slices.ContainsFunc(issues, openLoanOfStudent(studentID)), nil
}

// Exclusive runs fn while holding the ledger lock, so no IssueBook, ReturnBook or
// Reconcile interleaves with the writes fn makes. fn must not call back into the Ledger.
func (l *Ledger) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(ctx)
}

// WhenBookNotLent runs fn under the ledger lock unless an open loan references bookID.
// The check and fn form one critical section, so no IssueBook can land between them.
func (l *Ledger) WhenBookNotLent(ctx context.Context, bookID recordstore.ID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return storageError(err)
	}

	if slices.ContainsFunc(issues, openLoanOfBook(bookID)) {
		return fmt.Errorf("book %d: %w", bookID, ErrReferencedByOpenLoan)
	}

	return fn(ctx)
}

// WhenStudentHasNoLoans runs fn under the ledger lock unless studentID holds an open loan.
func (l *Ledger) WhenStudentHasNoLoans(ctx context.Context, studentID recordstore.ID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return storageError(err)
	}

	if slices.ContainsFunc(issues, openLoanOfStudent(studentID)) {
		return fmt.Errorf("student %d: %w", studentID, ErrReferencedByOpenLoan)
	}

	return fn(ctx)
}

func (l *Ledger) loadIssues(ctx context.Context) ([]recordstore.Issue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	return issues, nil
}

func openLoanOfBook(bookID recordstore.ID) func(recordstore.Issue) bool {
	return func(issue recordstore.Issue) bool {
		return issue.IsOpen() && issue.BookID == bookID
	}
}

func openLoanOfStudent(studentID recordstore.ID) func(recordstore.Issue) bool {
	return func(issue recordstore.Issue) bool {
		return issue.IsOpen() && issue.StudentID == studentID
	}
}

// Reconcile derives every Book's available flag from the open Issues and persists
// the corrected Books. It returns the ids of the books whose flag changed.
func (l *Ledger) Reconcile(ctx context.Context) ([]recordstore.ID, error) {
	ctx, obs := l.startCommand(ctx, CommandReconcile)

	changed, err := l.reconcile(ctx)
	if err != nil {
		obs.failed(err)
		return nil, err
	}

	if len(changed) > 0 {
		obs.log(levelWarn, LogMsgReconciled, LogAttrCorrectedCount, len(changed))
	}

	obs.succeeded(LogAttrCorrectedCount, len(changed))

	return changed, nil
}

func (l *Ledger) reconcile(ctx context.Context) ([]recordstore.ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.Books().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	issues, err := l.store.Issues().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	corrected, changed := reconcileAvailability(books, issues)
	if len(changed) == 0 {
		return nil, nil
	}

	if err = l.store.Books().RewriteAll(ctx, corrected); err != nil {
		return nil, storageError(err)
	}

	return changed, nil
}
