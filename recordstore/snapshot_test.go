package recordstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/memorystore"
)

func Test_Snapshot_TakeEncodeDecodeRestore(t *testing.T) {
	// arrange
	ctx := context.Background()
	fakeClock := time.Unix(1_700_000_000, 0).UTC()
	source := memorystore.New()
	require.NoError(t, source.Books().Append(ctx, recordstore.BuildBook(1, "Dune", "Frank Herbert", false)))
	require.NoError(t, source.Books().Append(ctx, recordstore.BuildBook(2, "Emma", "Jane Austen", true)))
	require.NoError(t, source.Students().Append(ctx, recordstore.BuildStudent(10, "Ada")))
	require.NoError(t, source.Issues().Append(ctx, recordstore.BuildOpenIssue(1, 10, fakeClock, 14)))

	// act
	snapshot, err := recordstore.TakeSnapshot(ctx, source, fakeClock.Add(time.Hour))
	require.NoError(t, err)

	data, err := recordstore.EncodeSnapshot(snapshot)
	require.NoError(t, err)

	decoded, err := recordstore.DecodeSnapshot(data)
	require.NoError(t, err)

	target := memorystore.New()
	require.NoError(t, target.Books().Append(ctx, recordstore.BuildBook(99, "Gone", "Nobody", true)))
	err = recordstore.RestoreSnapshot(ctx, target, decoded)

	// assert
	require.NoError(t, err)
	assert.NotEmpty(t, decoded.SnapshotID)
	assert.Equal(t, snapshot.TakenAt, decoded.TakenAt)

	books, err := target.Books().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Books, books, "restore must replace the previous collection")

	issues, err := target.Issues().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, fakeClock, issues[0].IssueTime)
	assert.True(t, issues[0].ReturnTime.IsZero())
}

func Test_Snapshot_Validate(t *testing.T) {
	issueTime := time.Unix(1_700_000_000, 0).UTC()

	tests := []struct {
		name        string
		snapshot    recordstore.Snapshot
		expectedErr error
	}{
		{
			name: "duplicate book id",
			snapshot: recordstore.Snapshot{Books: []recordstore.Book{
				recordstore.BuildBook(1, "A", "B", true),
				recordstore.BuildBook(1, "C", "D", true),
			}},
			expectedErr: recordstore.ErrDuplicateRecordID,
		},
		{
			name: "duplicate student id",
			snapshot: recordstore.Snapshot{Students: []recordstore.Student{
				recordstore.BuildStudent(5, "A"),
				recordstore.BuildStudent(5, "B"),
			}},
			expectedErr: recordstore.ErrDuplicateRecordID,
		},
		{
			name: "two open issues for one book",
			snapshot: recordstore.Snapshot{Issues: []recordstore.Issue{
				recordstore.BuildOpenIssue(1, 5, issueTime, 14),
				recordstore.BuildOpenIssue(1, 6, issueTime, 14),
			}},
			expectedErr: recordstore.ErrDoubleIssue,
		},
		{
			name: "loan period beyond the maximum",
			snapshot: recordstore.Snapshot{Issues: []recordstore.Issue{
				recordstore.BuildOpenIssue(1, 5, issueTime, recordstore.MaxDueDays+1),
			}},
			expectedErr: recordstore.ErrDueDaysOutOfRange,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.snapshot.Validate(), tc.expectedErr)
		})
	}

	closed := recordstore.BuildOpenIssue(1, 5, issueTime, 14)
	closed.Returned = true
	closed.ReturnTime = issueTime.Add(time.Hour)
	valid := recordstore.Snapshot{Issues: []recordstore.Issue{closed, recordstore.BuildOpenIssue(1, 6, issueTime, 14)}}
	assert.NoError(t, valid.Validate(), "a closed and an open issue for the same book are fine")
}

func Test_DecodeSnapshot_Errors(t *testing.T) {
	_, err := recordstore.DecodeSnapshot([]byte(`{"version": 1, "books": [`))
	assert.ErrorIs(t, err, recordstore.ErrInvalidSnapshotJSON)

	_, err = recordstore.DecodeSnapshot([]byte(`{"version": 99}`))
	assert.ErrorIs(t, err, recordstore.ErrUnsupportedSnapshotVersion)
}

func Test_TakeSnapshot_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	store.FailOn(recordstore.KindStudents, memorystore.OpLoadAll, nil)

	_, err := recordstore.TakeSnapshot(ctx, store, time.Now())

	assert.ErrorIs(t, err, recordstore.ErrTakingSnapshotFailed)
	assert.ErrorIs(t, err, memorystore.ErrInjectedFailure)
}
