package recordstore

import (
	"errors"
)

var (
	// ErrRecordNotFound is returned by FindByID when no record carries the requested ID.
	ErrRecordNotFound = errors.New("record not found")

	// ErrReadingCollectionFailed is returned when a collection can not be read.
	ErrReadingCollectionFailed = errors.New("reading collection failed")

	// ErrWritingCollectionFailed is returned when a collection can not be written.
	ErrWritingCollectionFailed = errors.New("writing collection failed")

	// ErrCorruptCollection is returned when stored bytes do not decode into records.
	ErrCorruptCollection = errors.New("collection data is corrupt")

	// ErrNilDatabaseConnection is returned when a nil database handle is supplied to a backend.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyDirectory is returned when an empty data directory is supplied to a backend.
	ErrEmptyDirectory = errors.New("data directory must not be empty")

	// ErrEmptyFileName is returned when an empty file name is supplied to a backend.
	ErrEmptyFileName = errors.New("file name must not be empty")

	// ErrEmptyTableName is returned when an empty table name is supplied to a backend.
	ErrEmptyTableName = errors.New("table name must not be empty")

	// ErrDueDaysOutOfRange is returned when an Issue's loan period lies outside 0..MaxDueDays.
	ErrDueDaysOutOfRange = errors.New("due days out of range")
)

// IsStorageError reports whether err originates from a failed read or write of a collection.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrReadingCollectionFailed) ||
		errors.Is(err, ErrWritingCollectionFailed) ||
		errors.Is(err, ErrCorruptCollection)
}
