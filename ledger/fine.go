package ledger

import (
	"time"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

const (
	// DefaultFinePerDay is charged for every started day a loan is late.
	DefaultFinePerDay int64 = 5

	// DefaultDueDays is the loan period used when none or a non-positive one is given.
	DefaultDueDays = 14
)

// Assessment is the lateness of a loan at a point in time.
type Assessment struct {
	DaysLate int64
	Fine     int64
}

// FinePolicy turns lateness into a fine.
type FinePolicy struct {
	PerDay int64
}

// DefaultFinePolicy charges DefaultFinePerDay.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{PerDay: DefaultFinePerDay}
}

// Assess computes days late and fine of issue measured at at.
// For a returned issue callers pass ReturnTime, for an open one the current time.
func (p FinePolicy) Assess(issue recordstore.Issue, at time.Time) Assessment {
	daysLate := DaysLate(issue.DueTime(), at)

	return Assessment{
		DaysLate: daysLate,
		Fine:     daysLate * p.PerDay,
	}
}

// DaysLate is the number of started days between due and at, 0 when at is not after due.
// Both timestamps are compared in whole seconds.
func DaysLate(due time.Time, at time.Time) int64 {
	late := at.Unix() - due.Unix()
	if late <= 0 {
		return 0
	}

	return (late + recordstore.SecondsPerDay - 1) / recordstore.SecondsPerDay
}

// IsOverdue reports whether issue is open and its due time lies strictly before asOf.
func IsOverdue(issue recordstore.Issue, asOf time.Time) bool {
	return issue.IsOpen() && issue.DueTime().Unix() < asOf.Unix()
}
