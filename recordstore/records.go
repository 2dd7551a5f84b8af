package recordstore

import (
	"time"
	"unicode/utf8"
)

const (
	// MaxTextBytes is the byte budget of every text field; longer values are truncated.
	MaxTextBytes = 99

	// SecondsPerDay is the length of one loan day.
	SecondsPerDay = 24 * 60 * 60

	// MaxDueDays is the longest loan period a record may carry, one hundred years.
	MaxDueDays = 36500
)

// Kind names one of the three collections.
type Kind string

const (
	// KindBooks is the Books collection.
	KindBooks Kind = "books"

	// KindStudents is the Students collection.
	KindStudents Kind = "students"

	// KindIssues is the Issues (loan ledger) collection.
	KindIssues Kind = "issues"
)

// AllKinds lists the collections in the order backends create and back them up.
func AllKinds() []Kind {
	return []Kind{KindBooks, KindStudents, KindIssues}
}

// ID is the numeric identifier of a Book or a Student.
type ID = int64

// Keyed is implemented by records that can be found by ID.
type Keyed interface {
	RecordID() ID
}

// Book is one catalog entry.
type Book struct {
	ID        ID
	Title     string
	Author    string
	Available bool
}

// RecordID returns the book's ID.
func (b Book) RecordID() ID {
	return b.ID
}

// BuildBook creates a Book with bounded text fields.
func BuildBook(id ID, title string, author string, available bool) Book {
	return Book{
		ID:        id,
		Title:     BoundText(title),
		Author:    BoundText(author),
		Available: available,
	}
}

// Student is a registered borrower.
type Student struct {
	ID   ID
	Name string
}

// RecordID returns the student's ID.
func (s Student) RecordID() ID {
	return s.ID
}

// BuildStudent creates a Student with a bounded name.
func BuildStudent(id ID, name string) Student {
	return Student{
		ID:   id,
		Name: BoundText(name),
	}
}

// Issue is one loan transaction. ReturnTime is only meaningful when Returned is true.
type Issue struct {
	BookID     ID
	StudentID  ID
	IssueTime  time.Time
	DueDays    int
	Returned   bool
	ReturnTime time.Time
}

// BuildOpenIssue creates an open Issue with second precision timestamps.
func BuildOpenIssue(bookID ID, studentID ID, issueTime time.Time, dueDays int) Issue {
	return Issue{
		BookID:    bookID,
		StudentID: studentID,
		IssueTime: ToStoredTime(issueTime),
		DueDays:   dueDays,
	}
}

// IsOpen reports whether the loan has not been returned yet.
func (i Issue) IsOpen() bool {
	return !i.Returned
}

// DueTime returns IssueTime plus DueDays whole days, computed in epoch seconds.
func (i Issue) DueTime() time.Time {
	due := i.IssueTime.Unix() + int64(i.DueDays)*SecondsPerDay

	return time.Unix(due, 0).In(i.IssueTime.Location())
}

// ToStoredTime normalizes a timestamp to what the collections persist: whole seconds since the epoch.
func ToStoredTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return time.Unix(t.Unix(), 0).UTC()
}

// FromUnix converts persisted epoch seconds back to a timestamp; 0 maps to the zero time.
func FromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}

	return time.Unix(sec, 0).UTC()
}

// ToUnix converts a timestamp to persisted epoch seconds; the zero time maps to 0.
func ToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.Unix()
}

// BoundText truncates s to MaxTextBytes without splitting a UTF-8 sequence.
func BoundText(s string) string {
	if len(s) <= MaxTextBytes {
		return s
	}

	cut := MaxTextBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
