// Package ledger owns the loan lifecycle of the library: issuing and returning books,
// detecting overdue loans and computing fines.
//
// The business rules are pure functions (decide.go) over records loaded from a
// recordstore.Store. The Ledger type is the imperative shell around them: it loads
// the records, asks the rules for a decision, persists the outcome and reports
// each command to the configured logger, metrics and tracing collectors.
//
// IssueBook, ReturnBook and Reconcile are serialized by a mutex, so the read-modify-write
// of Book.available and the Issue collection is one critical section per call.
// The two collections can not be written atomically together. When the second write
// of a command fails, the first one is rolled back; if that also fails the error
// matches ErrInconsistentState and Reconcile repairs the availability flags.
package ledger
