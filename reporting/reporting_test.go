package reporting_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/memorystore"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
)

const day = recordstore.SecondsPerDay * time.Second

// 2023-11-14T22:13:20Z
var start = time.Unix(1_700_000_000, 0).UTC()

type fixture struct {
	store    *memorystore.Store
	now      *time.Time
	ledger   *ledger.Ledger
	reporter *reporting.Reporter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	store := memorystore.New()
	now := start

	for _, id := range []recordstore.ID{1, 2} {
		require.NoError(t, store.Students().Append(ctx, recordstore.BuildStudent(id, "student")))
	}
	for _, id := range []recordstore.ID{10, 11, 12} {
		require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(id, "title", "author", true)))
	}

	l, err := ledger.NewLedger(store, ledger.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	return fixture{
		store:    store,
		now:      &now,
		ledger:   l,
		reporter: reporting.New(store, l, reporting.WithLocation(time.UTC)),
	}
}

// seedLoans leaves student 1 holding 11 (due start+7d) and 12 (due start+3d).
// Student 2 borrowed 10 for one day and returned it a day late.
func (f fixture) seedLoans(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := f.ledger.IssueBook(ctx, 2, 10, 1)
	require.NoError(t, err)
	*f.now = start.Add(2 * day)
	_, err = f.ledger.ReturnBook(ctx, 2, 10)
	require.NoError(t, err)

	*f.now = start
	_, err = f.ledger.IssueBook(ctx, 1, 11, 7)
	require.NoError(t, err)
	_, err = f.ledger.IssueBook(ctx, 1, 12, 3)
	require.NoError(t, err)
}

func Test_Reporter_Issued_InInsertionOrder(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.seedLoans(t)

	// act
	rows, err := f.reporter.Issued(context.Background())

	// assert
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, recordstore.ID(10), rows[0].BookID)
	assert.True(t, rows[0].Returned)
	assert.Equal(t, start.Add(2*day), rows[0].ReturnTime)
	assert.Equal(t, start.Add(day), rows[0].DueTime)
	assert.Equal(t, recordstore.ID(11), rows[1].BookID)
	assert.Equal(t, recordstore.ID(12), rows[2].BookID)
}

func Test_Reporter_History_And_OpenLoans(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	ctx := context.Background()

	history, err := f.reporter.History(ctx, 2)
	require.NoError(t, err)
	open1, err := f.reporter.OpenLoans(ctx, 1)
	require.NoError(t, err)
	open2, err := f.reporter.OpenLoans(ctx, 2)
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, recordstore.ID(10), history[0].BookID)
	assert.Len(t, open1, 2)
	assert.Empty(t, open2)
}

func Test_Reporter_Overdue_SortedByDueThenBookThenStudent(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.seedLoans(t)
	ctx := context.Background()
	_, err := f.ledger.IssueBook(ctx, 2, 10, 3)
	require.NoError(t, err)

	// act
	rows, err := f.reporter.Overdue(ctx, start.Add(8*day))

	// assert
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []recordstore.ID{10, 12, 11}, []recordstore.ID{rows[0].BookID, rows[1].BookID, rows[2].BookID})
	assert.Equal(t, int64(5), rows[0].DaysOverdue)
	assert.Equal(t, int64(25), rows[0].Fine)
	assert.Equal(t, int64(1), rows[2].DaysOverdue)
	assert.Equal(t, int64(5), rows[2].Fine)
}

func Test_Reporter_OverdueNow_UsesLedgerClock(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)

	*f.now = start.Add(3*day + time.Second)
	rows, err := f.reporter.OverdueNow(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, recordstore.ID(12), rows[0].BookID)
	assert.Equal(t, int64(1), rows[0].DaysOverdue)
}

func Test_Reporter_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn(recordstore.KindIssues, memorystore.OpLoadAll, nil)
	ctx := context.Background()

	_, errIssued := f.reporter.Issued(ctx)
	_, errOverdue := f.reporter.Overdue(ctx, start)

	assert.ErrorIs(t, errIssued, ledger.ErrStorageUnavailable)
	assert.ErrorIs(t, errOverdue, ledger.ErrStorageUnavailable)
}

func Test_Reporter_WriteIssuedTable(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.Issued(context.Background())
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteIssuedTable(out, rows))

	assert.Equal(t,
		"BookID StudentID IssueDate  DueDate    Returned ReturnDate\n"+
			"10     2         2023-11-14 2023-11-15 Yes      2023-11-16\n"+
			"11     1         2023-11-14 2023-11-21 No       -\n"+
			"12     1         2023-11-14 2023-11-17 No       -\n",
		out.String())
}

func Test_Reporter_WriteHistory(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.History(context.Background(), 1)
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteHistory(out, rows))

	assert.Equal(t,
		"Book 11 | Issued 2023-11-14 | Due 7 days | Returned -\n"+
			"Book 12 | Issued 2023-11-14 | Due 3 days | Returned -\n",
		out.String())
}

func Test_Reporter_EmptyMessages(t *testing.T) {
	f := newFixture(t)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteIssuedTable(out, nil))
	require.NoError(t, f.reporter.WriteOverdueList(out, nil))
	require.NoError(t, f.reporter.WriteHistory(out, nil))
	require.NoError(t, f.reporter.WriteOpenLoans(out, nil))

	assert.Equal(t,
		"No issue records.\nNo overdue books.\nNo history for this student.\nNo issued books for this student.\n",
		out.String())
}

func Test_Reporter_WriteOverdueCSV(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.Overdue(context.Background(), start.Add(4*day))
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteOverdueCSV(out, rows))

	assert.Equal(t,
		"BookID,StudentID,IssueDate,DueDate,DaysOverdue,Fine\n"+
			"12,1,2023-11-14,2023-11-17,1,5\n",
		out.String())
}

func Test_Reporter_WriteIssuedCSV(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.History(context.Background(), 2)
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteIssuedCSV(out, rows))

	assert.Equal(t,
		"BookID,StudentID,IssueDate,DueDate,Returned,ReturnDate\n"+
			"10,2,2023-11-14,2023-11-15,Yes,2023-11-16\n",
		out.String())
}

func Test_Reporter_WriteOverdueJSON(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.Overdue(context.Background(), start.Add(4*day))
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteOverdueJSON(out, rows))

	var decoded []map[string]any
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "2023-11-17", decoded[0]["due_date"])
	assert.InDelta(t, 5, decoded[0]["fine"], 0)
}

func Test_Reporter_WriteIssuedJSON_OmitsReturnDateOfOpenLoans(t *testing.T) {
	f := newFixture(t)
	f.seedLoans(t)
	rows, err := f.reporter.Issued(context.Background())
	require.NoError(t, err)
	out := new(bytes.Buffer)

	require.NoError(t, f.reporter.WriteIssuedJSON(out, rows))

	var decoded []map[string]any
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "2023-11-16", decoded[0]["return_date"])
	assert.NotContains(t, decoded[1], "return_date")
}

func Test_Reporter_DateUsesLocation(t *testing.T) {
	store := memorystore.New()
	tokyo := time.FixedZone("JST", 9*60*60)
	r := reporting.New(store, nil, reporting.WithLocation(tokyo))

	assert.Equal(t, "2023-11-15", r.Date(start))
}

func Test_ExportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, reporting.OverdueCSVFile)

	err := reporting.ExportFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("a,b\n"))
		return err
	})

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func Test_ExportFile_WriteErrorLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, reporting.IssuedCSVFile)
	boom := errors.New("boom")

	err := reporting.ExportFile(path, func(io.Writer) error { return boom })

	assert.ErrorIs(t, err, reporting.ErrExportFailed)
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
