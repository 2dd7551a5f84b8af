package console_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/console"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/memorystore"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
	"github.com/jalpatel9108-creator/library-management-system/session"
	"github.com/jalpatel9108-creator/library-management-system/testutil/helper"
)

const day = recordstore.SecondsPerDay * time.Second

type fixture struct {
	dir      string
	now      *time.Time
	store    *memorystore.Store
	services console.Services
	logSpy   *helper.LogHandlerSpy
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	now := time.Unix(1_700_000_000, 0).UTC()
	store := memorystore.New()

	require.NoError(t, store.Students().Append(ctx, recordstore.BuildStudent(1, "Ada")))
	require.NoError(t, store.Students().Append(ctx, recordstore.BuildStudent(2, "Grace")))
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(10, "Dune", "Frank Herbert", true)))
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(11, "Emma", "Jane Austen", true)))

	l, err := ledger.NewLedger(store, ledger.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	return fixture{
		dir:   dir,
		now:   &now,
		store: store,
		services: console.Services{
			Ledger:  l,
			Catalog: catalog.New(store, l),
			Reports: reporting.New(store, l, reporting.WithLocation(time.UTC)),
			Vault:   session.New(filepath.Join(dir, session.DefaultFileName), session.WithCost(bcrypt.MinCost)),
			Store:   store,
		},
		logSpy: helper.NewLogHandlerSpy(false),
	}
}

// run feeds lines to a fresh console and returns everything it printed.
func (f fixture) run(t *testing.T, lines ...string) string {
	t.Helper()

	out := new(bytes.Buffer)
	c := console.New(
		strings.NewReader(strings.Join(lines, "\n")+"\n"),
		out,
		f.services,
		console.WithLogger(f.logSpy.Logger()),
		console.WithDataPath(func(name string) string { return filepath.Join(f.dir, name) }),
	)

	require.NoError(t, c.Run(context.Background()))

	return out.String()
}

func (f fixture) book(t *testing.T, id recordstore.ID) recordstore.Book {
	t.Helper()

	b, err := f.store.Books().FindByID(context.Background(), id)
	require.NoError(t, err)

	return b
}

func Test_Console_ExitAndEndOfInput(t *testing.T) {
	f := newFixture(t)

	exited := f.run(t, "3")
	c := console.New(strings.NewReader(""), new(bytes.Buffer), f.services)

	assert.Contains(t, exited, "--- Library System ---")
	assert.Contains(t, exited, "Exiting.")
	assert.NoError(t, c.Run(context.Background()))
}

func Test_Console_InvalidMainChoice(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "abc", "9", "3")

	assert.Equal(t, 2, strings.Count(out, "Invalid choice."))
}

func Test_Console_StudentMode_UnknownStudent(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1", "99", "1", "x", "3")

	assert.Contains(t, out, "Student not found. Please contact admin.")
	assert.Contains(t, out, "Invalid ID.")
}

func Test_Console_Student_IssueAndLateReturn(t *testing.T) {
	// arrange
	f := newFixture(t)

	// act
	issued := f.run(t, "1", "1", "4", "10", "14", "6", "8", "3")
	*f.now = f.now.Add(15*day + time.Second)
	returned := f.run(t, "1", "1", "5", "10", "7", "8", "3")

	// assert
	assert.Contains(t, issued, "Welcome Ada (ID 1)")
	assert.Contains(t, issued, "Book issued to Ada (ID 1). Due in 14 days.")
	assert.Contains(t, issued, "Book ID: 10 | Issued: 2023-11-14 | Due: 2023-11-28")
	assert.Contains(t, returned, "Book returned by Ada (ID 1).")
	assert.Contains(t, returned, "Late by 2 day(s). Fine: 10")
	assert.Contains(t, returned, "Book 10 | Issued 2023-11-14 | Due 14 days | Returned 2023-11-29")
	assert.True(t, f.book(t, 10).Available)
}

func Test_Console_Student_OnTimeReturn(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1", "1", "4", "10", "3", "5", "10", "8", "3")

	assert.Contains(t, out, "Due in 3 days.")
	assert.Contains(t, out, "Returned on time. No fine.")
}

func Test_Console_Student_InvalidDueDaysDefault(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1", "1", "4", "10", "soon", "4", "11", "-2", "8", "3")

	assert.Equal(t, 2, strings.Count(out, "Invalid input. Using default 14."))
	assert.Equal(t, 2, strings.Count(out, "Due in 14 days."))
}

func Test_Console_Student_DueDaysTooLong(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1", "1", "4", "10", "200000", "8", "3")

	assert.Contains(t, out, "Due days must not exceed 36500.")
	assert.NotContains(t, out, "Book issued")
	assert.True(t, f.book(t, 10).Available)
}

func Test_Console_Student_Rejections(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.services.Ledger.IssueBook(context.Background(), 2, 10, 14)
	require.NoError(t, err)

	// act
	out := f.run(t, "1", "1",
		"4", "10",
		"4", "77",
		"5", "10",
		"5", "zz",
		"42",
		"8", "3")

	// assert
	assert.Contains(t, out, "Book not available.")
	assert.Contains(t, out, "Book not found.")
	assert.Contains(t, out, "No matching issue record found for this student.")
	assert.Contains(t, out, "Invalid input.")
	assert.Contains(t, out, "Invalid.")
	assert.False(t, f.book(t, 10).Available, "another student cannot return the loan")
	assert.True(t, f.logSpy.HasLog(slog.LevelWarn, "console operation rejected"))
}

func Test_Console_Student_BrowseBooks(t *testing.T) {
	f := newFixture(t)
	_, err := f.services.Ledger.IssueBook(context.Background(), 2, 10, 14)
	require.NoError(t, err)

	out := f.run(t, "1", "1", "1", "2", "2", "3", "austen", "3", "tolkien", "3", "", "8", "3")

	assert.Contains(t, out, "Sort by 1-ID 2-Title (enter choice): ")
	assert.Contains(t, out, "10    Dune                           Frank Herbert        Issued")
	assert.Contains(t, out, "11    Emma                           Jane Austen          Available")
	assert.Contains(t, out, "11    Emma                           Jane Austen         \n")
	assert.Contains(t, out, "No matching books.")
	assert.Contains(t, out, "Empty keyword.")
}

func Test_Console_Admin_AccessDenied(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "2", "a", "b", "c", "3")

	assert.Contains(t, out, "Enter admin password (Attempt 1/3): ")
	assert.Contains(t, out, "Enter admin password (Attempt 3/3): ")
	assert.Equal(t, 3, strings.Count(out, "Incorrect password."))
	assert.Contains(t, out, "Access denied.")
	assert.NotContains(t, out, "--- Admin Menu ---")
}

func Test_Console_Admin_CatalogManagement(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.services.Ledger.IssueBook(context.Background(), 2, 10, 14)
	require.NoError(t, err)

	// act
	out := f.run(t, "2", session.DefaultPassword,
		"1", "12", "Persuasion", "Jane Austen",
		"1", "12", "Again", "Someone",
		"1", "0",
		"2", "11", "Emma (annotated)", "J. Austen",
		"3", "10",
		"3", "12",
		"7", "3", "Linus",
		"7", "3", "Linus again",
		"8", "2",
		"8", "3",
		"13", "gra",
		"16", "3")

	// assert
	assert.Contains(t, out, "Book added.")
	assert.Contains(t, out, "Book ID already exists.")
	assert.Contains(t, out, "ID must be positive.")
	assert.Contains(t, out, "Book updated.")
	assert.Contains(t, out, "Book currently issued - cannot delete.")
	assert.Contains(t, out, "Book deleted.")
	assert.Contains(t, out, "Student added.")
	assert.Contains(t, out, "Student ID already exists.")
	assert.Contains(t, out, "Student has unreturned books. Cannot remove.")
	assert.Contains(t, out, "Student removed.")
	assert.Contains(t, out, "ID: 2 | Name: Grace")

	assert.Equal(t, "Emma (annotated)", f.book(t, 11).Title)
	_, err = f.store.Books().FindByID(context.Background(), 12)
	assert.ErrorIs(t, err, recordstore.ErrRecordNotFound)
}

func Test_Console_Admin_Reports(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.services.Ledger.IssueBook(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	*f.now = f.now.Add(3 * day)

	// act
	out := f.run(t, "2", session.DefaultPassword,
		"5", "y",
		"6", "n",
		"14", "1",
		"15",
		"16", "3")

	// assert
	assert.Contains(t, out, "BookID StudentID IssueDate  DueDate    Returned ReturnDate")
	assert.Contains(t, out, "Overdue -> BookID 10 | StudentID 1 | Issued: 2023-11-14 | Due: 2023-11-15 | Days: 2 | Fine: 10")
	assert.Contains(t, out, "History for student ID 1:")
	assert.Contains(t, out, "Exported to "+reporting.IssuedCSVFile)
	assert.Contains(t, out, "Exported to "+reporting.OverdueCSVFile)
	assert.Contains(t, out, "Exported to "+console.OverdueJSONFile)

	issuedCSV, err := os.ReadFile(filepath.Join(f.dir, reporting.IssuedCSVFile))
	require.NoError(t, err)
	assert.Equal(t, "BookID,StudentID,IssueDate,DueDate,Returned,ReturnDate\n10,1,2023-11-14,2023-11-15,No,-\n", string(issuedCSV))

	overdueCSV, err := os.ReadFile(filepath.Join(f.dir, reporting.OverdueCSVFile))
	require.NoError(t, err)
	assert.Equal(t, "BookID,StudentID,IssueDate,DueDate,DaysOverdue,Fine\n10,1,2023-11-14,2023-11-15,2,10\n", string(overdueCSV))

	_, err = os.Stat(filepath.Join(f.dir, console.OverdueJSONFile))
	assert.NoError(t, err)
}

func Test_Console_Admin_BackupAndRestore(t *testing.T) {
	// arrange
	f := newFixture(t)
	_, err := f.services.Ledger.IssueBook(context.Background(), 1, 10, 14)
	require.NoError(t, err)

	// act
	restoreMissing := f.run(t, "2", session.DefaultPassword, "10", "16", "3")
	out := f.run(t, "2", session.DefaultPassword,
		"9",
		"1", "12", "Persuasion", "Jane Austen",
		"10",
		"16", "3")

	// assert
	assert.Contains(t, restoreMissing, "No backup file found.")
	assert.Contains(t, out, "Backup completed.")
	assert.Contains(t, out, "Restore completed.")

	_, err = f.store.Books().FindByID(context.Background(), 12)
	assert.ErrorIs(t, err, recordstore.ErrRecordNotFound)
	assert.False(t, f.book(t, 10).Available)

	_, err = os.Stat(filepath.Join(f.dir, recordstore.DefaultSnapshotFileName))
	assert.NoError(t, err)
}

func Test_Console_Admin_ChangeAndResetPassword(t *testing.T) {
	f := newFixture(t)

	changed := f.run(t, "2", session.DefaultPassword,
		"11", "one", "two",
		"11", "s3cret", "s3cret",
		"16", "3")
	loginNew := f.run(t, "2", "s3cret", "12", "16", "3")
	loginDefault := f.run(t, "2", session.DefaultPassword, "16", "3")

	assert.Contains(t, changed, "Passwords do not match.")
	assert.Contains(t, changed, "Admin password changed.")
	assert.Contains(t, loginNew, "Admin password reset to default 'admin123'.")
	assert.NotContains(t, loginDefault, "Access denied.")
}

type scriptedPasswords struct {
	answers []string
}

func (s *scriptedPasswords) ReadPassword() (string, error) {
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

func Test_Console_PasswordReaderIsUsedForPasswords(t *testing.T) {
	f := newFixture(t)
	passwords := &scriptedPasswords{answers: []string{"wrong", session.DefaultPassword}}
	out := new(bytes.Buffer)
	c := console.New(strings.NewReader("2\n16\n3\n"), out, f.services, console.WithPasswordReader(passwords))

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Incorrect password.")
	assert.Contains(t, out.String(), "--- Admin Menu ---")
	assert.Empty(t, passwords.answers)
}

func Test_Console_StorageFailureIsOneLine(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn(recordstore.KindIssues, memorystore.OpAppend, nil)

	out := f.run(t, "1", "1", "4", "10", "14", "8", "3")

	assert.Contains(t, out, "Storage unavailable. Please try again.\n")
	assert.True(t, f.book(t, 10).Available)
	assert.True(t, f.logSpy.HasLog(slog.LevelError, "console operation failed"))
}
