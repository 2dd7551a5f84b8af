// Package memorystore provides an in-memory recordstore.Store.
//
// It keeps every collection as a slice guarded by a mutex and hands out copies,
// so callers can never mutate stored records in place. Failures can be injected
// per collection and primitive, which lets tests exercise the partial-failure
// paths of the ledger.
package memorystore

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// ErrInjectedFailure is the default error returned by injected failures.
var ErrInjectedFailure = errors.New("injected storage failure")

// Operation names one primitive for failure injection.
type Operation string

const (
	// OpLoadAll is the LoadAll primitive.
	OpLoadAll Operation = "load_all"

	// OpAppend is the Append primitive.
	OpAppend Operation = "append"

	// OpRewriteAll is the RewriteAll primitive.
	OpRewriteAll Operation = "rewrite_all"
)

type failureKey struct {
	kind recordstore.Kind
	op   Operation
}

// Store is an in-memory recordstore.Store.
type Store struct {
	mu       sync.Mutex
	failures map[failureKey]error
	books    *collection[recordstore.Book]
	students *collection[recordstore.Student]
	issues   *collection[recordstore.Issue]
}

// New creates an empty Store.
func New() *Store {
	s := &Store{failures: make(map[failureKey]error)}
	s.books = &collection[recordstore.Book]{store: s, kind: recordstore.KindBooks}
	s.students = &collection[recordstore.Student]{store: s, kind: recordstore.KindStudents}
	s.issues = &collection[recordstore.Issue]{store: s, kind: recordstore.KindIssues}

	return s
}

// Books returns the Books collection.
func (s *Store) Books() recordstore.KeyedCollection[recordstore.Book] {
	return keyedCollection[recordstore.Book]{s.books}
}

// Students returns the Students collection.
func (s *Store) Students() recordstore.KeyedCollection[recordstore.Student] {
	return keyedCollection[recordstore.Student]{s.students}
}

// Issues returns the Issues collection.
func (s *Store) Issues() recordstore.Collection[recordstore.Issue] {
	return s.issues
}

// FailOn makes every following call of op on kind fail with err (ErrInjectedFailure when err is nil).
func (s *Store) FailOn(kind recordstore.Kind, op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		err = ErrInjectedFailure
	}

	s.failures[failureKey{kind: kind, op: op}] = err
}

// ClearFailures removes all injected failures.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.failures)
}

// injected must be called with s.mu held.
func (s *Store) injected(kind recordstore.Kind, op Operation) error {
	err, ok := s.failures[failureKey{kind: kind, op: op}]
	if !ok {
		return nil
	}

	wrap := recordstore.ErrWritingCollectionFailed
	if op == OpLoadAll {
		wrap = recordstore.ErrReadingCollectionFailed
	}

	return errors.Join(wrap, err)
}

type collection[R any] struct {
	store   *Store
	kind    recordstore.Kind
	records []R
}

func (c *collection[R]) LoadAll(ctx context.Context) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if err := c.store.injected(c.kind, OpLoadAll); err != nil {
		return nil, err
	}

	return slices.Clone(c.records), nil
}

func (c *collection[R]) Append(ctx context.Context, record R) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if err := c.store.injected(c.kind, OpAppend); err != nil {
		return err
	}

	c.records = append(c.records, record)

	return nil
}

func (c *collection[R]) RewriteAll(ctx context.Context, records []R) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if err := c.store.injected(c.kind, OpRewriteAll); err != nil {
		return err
	}

	c.records = slices.Clone(records)

	return nil
}

type keyedCollection[R recordstore.Keyed] struct {
	*collection[R]
}

func (c keyedCollection[R]) FindByID(ctx context.Context, id recordstore.ID) (R, error) {
	records, err := c.LoadAll(ctx)
	if err != nil {
		var empty R
		return empty, err
	}

	return recordstore.FindInSlice(records, id)
}

var _ recordstore.Store = (*Store)(nil)
