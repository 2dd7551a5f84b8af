package console

import (
	"errors"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
	"github.com/jalpatel9108-creator/library-management-system/session"
)

// message maps an error kind to the line shown for it.
type message struct {
	kind error
	text string
}

// The first match wins, so more specific kinds come before the kinds they wrap.
var defaultMessages = []message{
	{kind: ledger.ErrInconsistentState, text: "Storage failed midway; books and loans may disagree. Restart to repair."},
	{kind: ledger.ErrBookNotFound, text: "Book not found."},
	{kind: ledger.ErrStudentNotFound, text: "Student not found."},
	{kind: ledger.ErrBookUnavailable, text: "Book not available."},
	{kind: ledger.ErrNoOpenLoan, text: "No matching issue record found for this student."},
	{kind: ledger.ErrReferencedByOpenLoan, text: "Still referenced by an open loan."},
	{kind: catalog.ErrDuplicateID, text: "ID already exists."},
	{kind: ledger.ErrInvalidInput, text: "Invalid input."},
	{kind: session.ErrPasswordMismatch, text: "Passwords do not match."},
	{kind: session.ErrInvalidPassword, text: "Password must not be empty."},
	{kind: session.ErrPasswordFileUnavailable, text: "Unable to access the admin password file."},
	{kind: recordstore.ErrSnapshotFileNotFound, text: "No backup file found."},
	{kind: recordstore.ErrInvalidSnapshotJSON, text: "Backup file is damaged."},
	{kind: recordstore.ErrUnsupportedSnapshotVersion, text: "Backup file was written by an unsupported version."},
	{kind: recordstore.ErrDuplicateRecordID, text: "Backup file is inconsistent."},
	{kind: recordstore.ErrDoubleIssue, text: "Backup file is inconsistent."},
	{kind: recordstore.ErrDueDaysOutOfRange, text: "Backup file is inconsistent."},
	{kind: reporting.ErrExportFailed, text: "Unable to write the export file."},
	{kind: ledger.ErrStorageUnavailable, text: "Storage unavailable. Please try again."},
	{kind: recordstore.ErrReadingCollectionFailed, text: "Storage unavailable. Please try again."},
	{kind: recordstore.ErrWritingCollectionFailed, text: "Storage unavailable. Please try again."},
}

// fail prints the line for err, checking overrides before the defaults, and logs err.
func (c *Console) fail(err error, overrides []message) {
	c.println(describe(err, overrides))
	c.logError(err)
}

func describe(err error, overrides []message) string {
	for _, candidates := range [][]message{overrides, defaultMessages} {
		for _, m := range candidates {
			if errors.Is(err, m.kind) {
				return m.text
			}
		}
	}

	return "Error: " + err.Error()
}

func (c *Console) logError(err error) {
	if c.logger == nil {
		return
	}

	if errors.Is(err, ledger.ErrStorageUnavailable) || errors.Is(err, ledger.ErrInconsistentState) {
		c.logger.Error("console operation failed", "error", err.Error())
		return
	}

	c.logger.Warn("console operation rejected", "error", err.Error())
}
