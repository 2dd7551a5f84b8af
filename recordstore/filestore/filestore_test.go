package filestore_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/filestore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/internal/instrument"
	"github.com/jalpatel9108-creator/library-management-system/testutil/helper"
)

func newStore(t *testing.T, options ...filestore.Option) (*filestore.FileStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := filestore.New(dir, options...)
	require.NoError(t, err)

	return store, dir
}

func Test_FileStore_New_RejectsEmptyDirectory(t *testing.T) {
	_, err := filestore.New("")

	assert.ErrorIs(t, err, recordstore.ErrEmptyDirectory)
}

func Test_FileStore_New_RejectsEmptyFileName(t *testing.T) {
	_, err := filestore.New(t.TempDir(), filestore.WithFileName(recordstore.KindBooks, ""))

	assert.ErrorIs(t, err, recordstore.ErrEmptyFileName)
}

func Test_FileStore_MissingFileIsEmptyCollection(t *testing.T) {
	store, _ := newStore(t)

	books, err := store.Books().LoadAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_FileStore_AppendAndLoadAll_PreservesOrderAndFields(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, dir := newStore(t)
	issueTime := time.Unix(1_700_000_000, 0).UTC()
	returned := recordstore.BuildOpenIssue(7, 70, issueTime, 14)
	returned.Returned = true
	returned.ReturnTime = issueTime.Add(20 * 24 * time.Hour)
	open := recordstore.BuildOpenIssue(8, 70, issueTime, -3)

	// act
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(7, "Dune", "Frank Herbert", true)))
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(8, "Émile", "Rousseau", false)))
	require.NoError(t, store.Students().Append(ctx, recordstore.BuildStudent(70, "Ada Lovelace")))
	require.NoError(t, store.Issues().Append(ctx, returned))
	require.NoError(t, store.Issues().Append(ctx, open))

	// assert
	books, err := store.Books().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []recordstore.Book{
		{ID: 7, Title: "Dune", Author: "Frank Herbert", Available: true},
		{ID: 8, Title: "Émile", Author: "Rousseau", Available: false},
	}, books)

	issues, err := store.Issues().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []recordstore.Issue{returned, open}, issues)

	student, err := store.Students().FindByID(ctx, 70)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", student.Name)
	assert.FileExists(t, filepath.Join(dir, "books.dat"))
}

func Test_FileStore_TextFieldsAreBounded(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	long := strings.Repeat("x", 300)

	require.NoError(t, store.Students().Append(ctx, recordstore.Student{ID: 1, Name: long}))

	student, err := store.Students().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, student.Name, recordstore.MaxTextBytes)
}

func Test_FileStore_FindByID_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Books().FindByID(context.Background(), 42)

	assert.ErrorIs(t, err, recordstore.ErrRecordNotFound)
}

func Test_FileStore_RewriteAll_ReplacesContentAndLeavesNoTempFiles(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, dir := newStore(t)
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(1, "A", "B", true)))
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(2, "C", "D", true)))

	// act
	err := store.Books().RewriteAll(ctx, []recordstore.Book{recordstore.BuildBook(2, "C", "D", false)})

	// assert
	require.NoError(t, err)
	books, err := store.Books().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []recordstore.Book{{ID: 2, Title: "C", Author: "D", Available: false}}, books)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func Test_FileStore_RewriteAll_Empty(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.Students().Append(ctx, recordstore.BuildStudent(1, "A")))

	require.NoError(t, store.Students().RewriteAll(ctx, nil))

	students, err := store.Students().LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func Test_FileStore_CorruptFile(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "issues.dat"), []byte{1, 2, 3}, 0o644))

	_, err := store.Issues().LoadAll(context.Background())

	assert.ErrorIs(t, err, recordstore.ErrCorruptCollection)
	assert.ErrorIs(t, err, recordstore.ErrReadingCollectionFailed)
	assert.True(t, recordstore.IsStorageError(err))
}

func Test_FileStore_UnwritableDirectory(t *testing.T) {
	ctx := context.Background()
	store, dir := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "books.dat"), 0o755))

	err := store.Books().Append(ctx, recordstore.BuildBook(1, "A", "B", true))
	assert.ErrorIs(t, err, recordstore.ErrWritingCollectionFailed)

	_, err = store.Books().LoadAll(ctx)
	assert.ErrorIs(t, err, recordstore.ErrReadingCollectionFailed)
}

func Test_FileStore_IssueDueDaysOutOfRange_LeavesFileUntouched(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, _ := newStore(t)
	issueTime := time.Unix(1_700_000_000, 0)
	stored := recordstore.BuildOpenIssue(1, 2, issueTime, 14)
	require.NoError(t, store.Issues().Append(ctx, stored))
	tooLong := recordstore.BuildOpenIssue(3, 2, issueTime, 1<<40)

	// act
	errAppend := store.Issues().Append(ctx, tooLong)
	errRewrite := store.Issues().RewriteAll(ctx, []recordstore.Issue{stored, tooLong})

	// assert
	assert.ErrorIs(t, errAppend, recordstore.ErrDueDaysOutOfRange)
	assert.ErrorIs(t, errAppend, recordstore.ErrWritingCollectionFailed)
	assert.ErrorIs(t, errRewrite, recordstore.ErrDueDaysOutOfRange)

	issues, err := store.Issues().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []recordstore.Issue{stored}, issues)
}

func Test_FileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, _ := newStore(t)

	_, err := store.Books().LoadAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func Test_FileStore_WithFileName(t *testing.T) {
	ctx := context.Background()
	store, dir := newStore(t, filestore.WithFileName(recordstore.KindIssues, "loans.bin"))

	require.NoError(t, store.Issues().Append(ctx, recordstore.BuildOpenIssue(1, 2, time.Unix(100, 0), 14)))

	assert.Equal(t, filepath.Join(dir, "loans.bin"), store.Path(recordstore.KindIssues))
	assert.FileExists(t, filepath.Join(dir, "loans.bin"))
}

func Test_FileStore_Observability(t *testing.T) {
	// arrange
	ctx := context.Background()
	logSpy := helper.NewLogHandlerSpy(false)
	metricsSpy := helper.NewMetricsCollectorSpy()
	tracingSpy := helper.NewTracingCollectorSpy()
	store, dir := newStore(t,
		filestore.WithLogger(logSpy.Logger()),
		filestore.WithMetrics(metricsSpy),
		filestore.WithTracing(tracingSpy),
	)

	// act
	require.NoError(t, store.Books().Append(ctx, recordstore.BuildBook(1, "A", "B", true)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.dat"), []byte{1}, 0o644))
	_, err := store.Books().LoadAll(ctx)
	require.Error(t, err)

	// assert
	assert.True(t, logSpy.HasLog(slog.LevelDebug, instrument.LogMsgOperation+instrument.OperationAppend))
	assert.True(t, logSpy.HasLog(slog.LevelError, instrument.LogMsgFailed+instrument.OperationLoadAll))
	assert.True(t, metricsSpy.HasDurationRecord(instrument.MetricOperationDuration, instrument.StatusSuccess))
	assert.True(t, metricsSpy.HasDurationRecord(instrument.MetricOperationDuration, instrument.StatusError))
	assert.Equal(t, 1, metricsSpy.CountCounterRecords(instrument.MetricStorageErrors))

	span, found := tracingSpy.FindSpan(instrument.SpanNamePrefix + instrument.OperationAppend)
	require.True(t, found)
	assert.True(t, span.Finished)
	assert.Equal(t, instrument.StatusSuccess, span.Status)
	assert.Equal(t, "books", span.StartAttributes[instrument.SpanAttrCollection])
}
