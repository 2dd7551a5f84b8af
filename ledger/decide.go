package ledger

import (
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// issueState is what the issue rules need to know, projected from the loaded records.
type issueState struct {
	studentExists bool
	bookIndex     int
	bookAvailable bool
	bookHasLoan   bool
}

func projectIssue(
	students []recordstore.Student,
	books []recordstore.Book,
	issues []recordstore.Issue,
	studentID recordstore.ID,
	bookID recordstore.ID,
) issueState {
	s := issueState{bookIndex: -1}

	for _, st := range students {
		if st.ID == studentID {
			s.studentExists = true
			break
		}
	}

	for i, b := range books {
		if b.ID == bookID {
			s.bookIndex = i
			s.bookAvailable = b.Available
			break
		}
	}

	for _, iss := range issues {
		if iss.BookID == bookID && iss.IsOpen() {
			s.bookHasLoan = true
			break
		}
	}

	return s
}

// decideIssue applies the issue rules in the order a librarian would check them:
//
//	ERROR: student not found
//	ERROR: book not found
//	ERROR: book unavailable if its flag says so or an open loan still references it
func decideIssue(s issueState) error {
	if !s.studentExists {
		return ErrStudentNotFound
	}

	if s.bookIndex < 0 {
		return ErrBookNotFound
	}

	if !s.bookAvailable || s.bookHasLoan {
		return ErrBookUnavailable
	}

	return nil
}

// findOpenLoanIndex returns the index of the first open issue matching book and student, or -1.
// Matching on the student keeps one student from returning another student's loan.
func findOpenLoanIndex(issues []recordstore.Issue, studentID recordstore.ID, bookID recordstore.ID) int {
	for i, iss := range issues {
		if iss.IsOpen() && iss.BookID == bookID && iss.StudentID == studentID {
			return i
		}
	}

	return -1
}

// withAvailability returns a copy of books where the book with bookID has the given flag.
// The bool result is false when no such book exists.
func withAvailability(books []recordstore.Book, bookID recordstore.ID, available bool) ([]recordstore.Book, bool) {
	updated := make([]recordstore.Book, len(books))
	copy(updated, books)

	for i := range updated {
		if updated[i].ID == bookID {
			updated[i].Available = available
			return updated, true
		}
	}

	return updated, false
}

// reconcileAvailability derives every book's flag from the open issues.
// It returns the corrected books and the ids whose flag changed.
func reconcileAvailability(books []recordstore.Book, issues []recordstore.Issue) ([]recordstore.Book, []recordstore.ID) {
	lent := make(map[recordstore.ID]struct{})
	for _, iss := range issues {
		if iss.IsOpen() {
			lent[iss.BookID] = struct{}{}
		}
	}

	corrected := make([]recordstore.Book, len(books))
	copy(corrected, books)

	var changed []recordstore.ID
	for i := range corrected {
		_, isLent := lent[corrected[i].ID]
		if corrected[i].Available == isLent {
			corrected[i].Available = !isLent
			changed = append(changed, corrected[i].ID)
		}
	}

	return corrected, changed
}

// normalizeDueDays maps a missing or non-positive loan period to the default.
func normalizeDueDays(dueDays int, defaultDueDays int) int {
	if dueDays <= 0 {
		return defaultDueDays
	}

	return dueDays
}

func validID(id recordstore.ID) bool {
	return id > 0
}
