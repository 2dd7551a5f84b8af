package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// SnapshotFormatVersion is written into every encoded snapshot.
const SnapshotFormatVersion = 1

var (
	// ErrInvalidSnapshotJSON is returned when snapshot JSON data is malformed.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrUnsupportedSnapshotVersion is returned when a snapshot was written by an unknown format version.
	ErrUnsupportedSnapshotVersion = errors.New("snapshot format version is not supported")

	// ErrDuplicateRecordID is returned when a snapshot contains two books or two students with the same ID.
	ErrDuplicateRecordID = errors.New("snapshot contains duplicate record id")

	// ErrDoubleIssue is returned when a snapshot contains more than one open issue for the same book.
	ErrDoubleIssue = errors.New("snapshot contains more than one open issue for a book")

	// ErrTakingSnapshotFailed is returned when a collection could not be read for a snapshot.
	ErrTakingSnapshotFailed = errors.New("taking snapshot failed")

	// ErrRestoringSnapshotFailed is returned when a collection could not be replaced from a snapshot.
	ErrRestoringSnapshotFailed = errors.New("restoring snapshot failed")
)

// Snapshot is a point-in-time copy of all three collections, used for backup and restore.
type Snapshot struct {
	SnapshotID string
	TakenAt    time.Time
	Books      []Book
	Students   []Student
	Issues     []Issue
}

// Validate ensures the snapshot can be restored without breaking the ledger invariants.
func (s Snapshot) Validate() error {
	bookIDs := make(map[ID]struct{}, len(s.Books))
	for _, b := range s.Books {
		if _, seen := bookIDs[b.ID]; seen {
			return fmt.Errorf("%w: book %d", ErrDuplicateRecordID, b.ID)
		}
		bookIDs[b.ID] = struct{}{}
	}

	studentIDs := make(map[ID]struct{}, len(s.Students))
	for _, st := range s.Students {
		if _, seen := studentIDs[st.ID]; seen {
			return fmt.Errorf("%w: student %d", ErrDuplicateRecordID, st.ID)
		}
		studentIDs[st.ID] = struct{}{}
	}

	openByBook := make(map[ID]int)
	for _, iss := range s.Issues {
		if iss.DueDays < 0 || iss.DueDays > MaxDueDays {
			return fmt.Errorf("%w: book %d has %d days", ErrDueDaysOutOfRange, iss.BookID, iss.DueDays)
		}
		if !iss.IsOpen() {
			continue
		}
		openByBook[iss.BookID]++
		if openByBook[iss.BookID] > 1 {
			return fmt.Errorf("%w: book %d", ErrDoubleIssue, iss.BookID)
		}
	}

	return nil
}

// TakeSnapshot reads every collection of the store.
func TakeSnapshot(ctx context.Context, store Store, takenAt time.Time) (Snapshot, error) {
	books, err := store.Books().LoadAll(ctx)
	if err != nil {
		return Snapshot{}, errors.Join(ErrTakingSnapshotFailed, err)
	}

	students, err := store.Students().LoadAll(ctx)
	if err != nil {
		return Snapshot{}, errors.Join(ErrTakingSnapshotFailed, err)
	}

	issues, err := store.Issues().LoadAll(ctx)
	if err != nil {
		return Snapshot{}, errors.Join(ErrTakingSnapshotFailed, err)
	}

	return Snapshot{
		SnapshotID: uuid.NewString(),
		TakenAt:    ToStoredTime(takenAt),
		Books:      books,
		Students:   students,
		Issues:     issues,
	}, nil
}

// RestoreSnapshot validates the snapshot and replaces every collection of the store with its content.
// Collections are replaced one after the other; each single replacement is atomic.
func RestoreSnapshot(ctx context.Context, store Store, snapshot Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	if err := store.Issues().RewriteAll(ctx, snapshot.Issues); err != nil {
		return errors.Join(ErrRestoringSnapshotFailed, err)
	}

	if err := store.Students().RewriteAll(ctx, snapshot.Students); err != nil {
		return errors.Join(ErrRestoringSnapshotFailed, err)
	}

	if err := store.Books().RewriteAll(ctx, snapshot.Books); err != nil {
		return errors.Join(ErrRestoringSnapshotFailed, err)
	}

	return nil
}

type snapshotJSON struct {
	Version    int           `json:"version"`
	SnapshotID string        `json:"snapshot_id"`
	TakenAt    int64         `json:"taken_at"`
	Books      []bookJSON    `json:"books"`
	Students   []studentJSON `json:"students"`
	Issues     []issueJSON   `json:"issues"`
}

type bookJSON struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

type studentJSON struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type issueJSON struct {
	BookID     ID    `json:"book_id"`
	StudentID  ID    `json:"student_id"`
	IssueTime  int64 `json:"issue_time"`
	DueDays    int   `json:"due_days"`
	Returned   bool  `json:"returned"`
	ReturnTime int64 `json:"return_time"`
}

// EncodeSnapshot serializes a snapshot to JSON. Timestamps are written as epoch seconds.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	doc := snapshotJSON{
		Version:    SnapshotFormatVersion,
		SnapshotID: snapshot.SnapshotID,
		TakenAt:    ToUnix(snapshot.TakenAt),
		Books:      make([]bookJSON, 0, len(snapshot.Books)),
		Students:   make([]studentJSON, 0, len(snapshot.Students)),
		Issues:     make([]issueJSON, 0, len(snapshot.Issues)),
	}

	for _, b := range snapshot.Books {
		doc.Books = append(doc.Books, bookJSON{ID: b.ID, Title: b.Title, Author: b.Author, Available: b.Available})
	}

	for _, s := range snapshot.Students {
		doc.Students = append(doc.Students, studentJSON{ID: s.ID, Name: s.Name})
	}

	for _, i := range snapshot.Issues {
		doc.Issues = append(doc.Issues, issueJSON{
			BookID:     i.BookID,
			StudentID:  i.StudentID,
			IssueTime:  ToUnix(i.IssueTime),
			DueDays:    i.DueDays,
			Returned:   i.Returned,
			ReturnTime: ToUnix(i.ReturnTime),
		})
	}

	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(doc, "", "  ")
}

// DecodeSnapshot parses JSON produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if !jsoniter.ConfigFastest.Valid(data) {
		return Snapshot{}, ErrInvalidSnapshotJSON
	}

	doc := new(snapshotJSON)
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, doc); err != nil {
		return Snapshot{}, errors.Join(ErrInvalidSnapshotJSON, err)
	}

	if doc.Version != SnapshotFormatVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSnapshotVersion, doc.Version)
	}

	snapshot := Snapshot{
		SnapshotID: doc.SnapshotID,
		TakenAt:    FromUnix(doc.TakenAt),
		Books:      make([]Book, 0, len(doc.Books)),
		Students:   make([]Student, 0, len(doc.Students)),
		Issues:     make([]Issue, 0, len(doc.Issues)),
	}

	for _, b := range doc.Books {
		snapshot.Books = append(snapshot.Books, BuildBook(b.ID, b.Title, b.Author, b.Available))
	}

	for _, s := range doc.Students {
		snapshot.Students = append(snapshot.Students, BuildStudent(s.ID, s.Name))
	}

	for _, i := range doc.Issues {
		snapshot.Issues = append(snapshot.Issues, Issue{
			BookID:     i.BookID,
			StudentID:  i.StudentID,
			IssueTime:  FromUnix(i.IssueTime),
			DueDays:    i.DueDays,
			Returned:   i.Returned,
			ReturnTime: FromUnix(i.ReturnTime),
		})
	}

	return snapshot, nil
}
