package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every "entity does not exist" error.
	ErrNotFound = errors.New("not found")

	// ErrBookNotFound is returned when a book id does not resolve to a Book.
	ErrBookNotFound = fmt.Errorf("book %w", ErrNotFound)

	// ErrStudentNotFound is returned when a student id does not resolve to a Student.
	ErrStudentNotFound = fmt.Errorf("student %w", ErrNotFound)

	// ErrBookUnavailable is returned when a book that is currently lent is issued again.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrNoOpenLoan is returned when no open loan matches the book and student of a return.
	ErrNoOpenLoan = errors.New("no open loan for this book and student")

	// ErrReferencedByOpenLoan is returned when a book or student with an open loan is deleted.
	ErrReferencedByOpenLoan = errors.New("referenced by an open loan")

	// ErrInvalidInput is returned for non-positive ids.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable wraps every failure of the record store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInconsistentState is returned when a failed command could not be rolled back.
	ErrInconsistentState = errors.New("books and issues are inconsistent")
)

// storageError wraps a record store failure so it matches ErrStorageUnavailable.
func storageError(err error) error {
	if err == nil {
		return nil
	}

	return errors.Join(ErrStorageUnavailable, err)
}
