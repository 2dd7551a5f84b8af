// Package catalog manages the books and students the ledger lends between.
//
// Deleting a book or removing a student is refused while an open loan references it.
// Every write runs inside a critical section of the ledger, so catalog changes never
// interleave with an IssueBook or ReturnBook.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// ErrDuplicateID is returned when a book or student id is already taken.
var ErrDuplicateID = fmt.Errorf("id already exists: %w", ledger.ErrInvalidInput)

// SortOrder selects the order of ListBooks.
type SortOrder int

const (
	// SortByID orders books by ascending id.
	SortByID SortOrder = iota
	// SortByTitle orders books by title, case-insensitively, then by id.
	SortByTitle
)

// LoanGuard runs catalog writes in the ledger's critical section.
// *ledger.Ledger implements it.
type LoanGuard interface {
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
	WhenBookNotLent(ctx context.Context, bookID recordstore.ID, fn func(ctx context.Context) error) error
	WhenStudentHasNoLoans(ctx context.Context, studentID recordstore.ID, fn func(ctx context.Context) error) error
}

// Catalog performs the add, update, delete, list and search operations.
type Catalog struct {
	store  recordstore.Store
	loans  LoanGuard
	logger recordstore.Logger
}

// Option defines a functional option for configuring a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger receiving one Info record per catalog change.
func WithLogger(logger recordstore.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates a Catalog.
func New(store recordstore.Store, loans LoanGuard, options ...Option) *Catalog {
	c := &Catalog{store: store, loans: loans}

	for _, option := range options {
		option(c)
	}

	return c
}

// AddBook adds an available book. Title and author are trimmed and bounded.
func (c *Catalog) AddBook(ctx context.Context, id recordstore.ID, title string, author string) (recordstore.Book, error) {
	if id <= 0 {
		return recordstore.Book{}, fmt.Errorf("%w: book id must be positive", ledger.ErrInvalidInput)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return recordstore.Book{}, fmt.Errorf("%w: title must not be empty", ledger.ErrInvalidInput)
	}

	book := recordstore.BuildBook(id, title, strings.TrimSpace(author), true)

	err := c.loans.Exclusive(ctx, func(ctx context.Context) error {
		_, err := c.store.Books().FindByID(ctx, id)
		switch {
		case err == nil:
			return fmt.Errorf("book %d: %w", id, ErrDuplicateID)
		case !errors.Is(err, recordstore.ErrRecordNotFound):
			return storageError(err)
		}

		if err = c.store.Books().Append(ctx, book); err != nil {
			return storageError(err)
		}

		return nil
	})
	if err != nil {
		return recordstore.Book{}, err
	}

	c.logChange("book added", "book_id", id)

	return book, nil
}

// UpdateBook replaces title and author of a book; availability is left alone.
func (c *Catalog) UpdateBook(ctx context.Context, id recordstore.ID, title string, author string) (recordstore.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return recordstore.Book{}, fmt.Errorf("%w: title must not be empty", ledger.ErrInvalidInput)
	}

	var updated recordstore.Book

	err := c.loans.Exclusive(ctx, func(ctx context.Context) error {
		books, err := c.store.Books().LoadAll(ctx)
		if err != nil {
			return storageError(err)
		}

		idx := slices.IndexFunc(books, func(b recordstore.Book) bool { return b.ID == id })
		if idx < 0 {
			return ledger.ErrBookNotFound
		}

		books[idx] = recordstore.BuildBook(id, title, strings.TrimSpace(author), books[idx].Available)
		if err = c.store.Books().RewriteAll(ctx, books); err != nil {
			return storageError(err)
		}

		updated = books[idx]

		return nil
	})
	if err != nil {
		return recordstore.Book{}, err
	}

	c.logChange("book updated", "book_id", id)

	return updated, nil
}

// DeleteBook removes a book that no open loan references.
func (c *Catalog) DeleteBook(ctx context.Context, id recordstore.ID) error {
	err := c.loans.WhenBookNotLent(ctx, id, func(ctx context.Context) error {
		books, err := c.store.Books().LoadAll(ctx)
		if err != nil {
			return storageError(err)
		}

		idx := slices.IndexFunc(books, func(b recordstore.Book) bool { return b.ID == id })
		if idx < 0 {
			return ledger.ErrBookNotFound
		}

		if err = c.store.Books().RewriteAll(ctx, slices.Delete(books, idx, idx+1)); err != nil {
			return storageError(err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	c.logChange("book deleted", "book_id", id)

	return nil
}

// ListBooks returns all books in the requested order.
func (c *Catalog) ListBooks(ctx context.Context, order SortOrder) ([]recordstore.Book, error) {
	books, err := c.store.Books().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	switch order {
	case SortByTitle:
		slices.SortStableFunc(books, func(a, b recordstore.Book) int {
			if n := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); n != 0 {
				return n
			}
			return cmp.Compare(a.ID, b.ID)
		})
	default:
		slices.SortStableFunc(books, func(a, b recordstore.Book) int { return cmp.Compare(a.ID, b.ID) })
	}

	return books, nil
}

// ListAvailableBooks returns the available books in insertion order.
func (c *Catalog) ListAvailableBooks(ctx context.Context) ([]recordstore.Book, error) {
	books, err := c.store.Books().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	return slices.DeleteFunc(books, func(b recordstore.Book) bool { return !b.Available }), nil
}

// SearchBooks returns the books whose title or author contains every word of keyword.
func (c *Catalog) SearchBooks(ctx context.Context, keyword string) ([]recordstore.Book, error) {
	words, err := keywordWords(keyword)
	if err != nil {
		return nil, err
	}

	books, err := c.store.Books().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	return slices.DeleteFunc(books, func(b recordstore.Book) bool {
		return !MatchWords(b.Title, words) && !MatchWords(b.Author, words)
	}), nil
}

// AddStudent registers a student.
func (c *Catalog) AddStudent(ctx context.Context, id recordstore.ID, name string) (recordstore.Student, error) {
	if id <= 0 {
		return recordstore.Student{}, fmt.Errorf("%w: student id must be positive", ledger.ErrInvalidInput)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return recordstore.Student{}, fmt.Errorf("%w: name must not be empty", ledger.ErrInvalidInput)
	}

	student := recordstore.BuildStudent(id, name)

	err := c.loans.Exclusive(ctx, func(ctx context.Context) error {
		_, err := c.store.Students().FindByID(ctx, id)
		switch {
		case err == nil:
			return fmt.Errorf("student %d: %w", id, ErrDuplicateID)
		case !errors.Is(err, recordstore.ErrRecordNotFound):
			return storageError(err)
		}

		if err = c.store.Students().Append(ctx, student); err != nil {
			return storageError(err)
		}

		return nil
	})
	if err != nil {
		return recordstore.Student{}, err
	}

	c.logChange("student added", "student_id", id)

	return student, nil
}

// RemoveStudent removes a student without open loans.
func (c *Catalog) RemoveStudent(ctx context.Context, id recordstore.ID) error {
	err := c.loans.WhenStudentHasNoLoans(ctx, id, func(ctx context.Context) error {
		students, err := c.store.Students().LoadAll(ctx)
		if err != nil {
			return storageError(err)
		}

		idx := slices.IndexFunc(students, func(s recordstore.Student) bool { return s.ID == id })
		if idx < 0 {
			return ledger.ErrStudentNotFound
		}

		if err = c.store.Students().RewriteAll(ctx, slices.Delete(students, idx, idx+1)); err != nil {
			return storageError(err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	c.logChange("student removed", "student_id", id)

	return nil
}

// SearchStudents returns the students whose name contains every word of keyword.
func (c *Catalog) SearchStudents(ctx context.Context, keyword string) ([]recordstore.Student, error) {
	words, err := keywordWords(keyword)
	if err != nil {
		return nil, err
	}

	students, err := c.store.Students().LoadAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	return slices.DeleteFunc(students, func(s recordstore.Student) bool {
		return !MatchWords(s.Name, words)
	}), nil
}

// Book returns the book with id.
func (c *Catalog) Book(ctx context.Context, id recordstore.ID) (recordstore.Book, error) {
	book, err := c.store.Books().FindByID(ctx, id)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return recordstore.Book{}, ledger.ErrBookNotFound
	}
	if err != nil {
		return recordstore.Book{}, storageError(err)
	}

	return book, nil
}

// Student returns the student with id.
func (c *Catalog) Student(ctx context.Context, id recordstore.ID) (recordstore.Student, error) {
	student, err := c.store.Students().FindByID(ctx, id)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return recordstore.Student{}, ledger.ErrStudentNotFound
	}
	if err != nil {
		return recordstore.Student{}, storageError(err)
	}

	return student, nil
}

// StudentName returns the name of a student, used to greet a student in the console.
func (c *Catalog) StudentName(ctx context.Context, id recordstore.ID) (string, error) {
	student, err := c.Student(ctx, id)
	if err != nil {
		return "", err
	}

	return student.Name, nil
}

// MatchWords reports whether every word occurs in text, ignoring case.
func MatchWords(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if !strings.Contains(lower, w) {
			return false
		}
	}

	return true
}

func keywordWords(keyword string) ([]string, error) {
	words := strings.Fields(strings.ToLower(keyword))
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: keyword must not be empty", ledger.ErrInvalidInput)
	}

	return words, nil
}

func storageError(err error) error {
	return errors.Join(ledger.ErrStorageUnavailable, err)
}

func (c *Catalog) logChange(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
