package recordstore

import (
	"context"
)

// Collection is the set of primitives every collection offers.
type Collection[R any] interface {
	LoadAll(ctx context.Context) ([]R, error)
	Append(ctx context.Context, record R) error
	RewriteAll(ctx context.Context, records []R) error
}

// KeyedCollection additionally supports lookup by ID.
// FindByID returns ErrRecordNotFound when no record carries the ID.
type KeyedCollection[R Keyed] interface {
	Collection[R]
	FindByID(ctx context.Context, id ID) (R, error)
}

// Store bundles the three typed collections.
type Store interface {
	Books() KeyedCollection[Book]
	Students() KeyedCollection[Student]
	Issues() Collection[Issue]
}

// FindInSlice returns the first record with the given ID, or ErrRecordNotFound.
// Backends without an index use it to implement FindByID on top of LoadAll.
func FindInSlice[R Keyed](records []R, id ID) (R, error) {
	for _, r := range records {
		if r.RecordID() == id {
			return r, nil
		}
	}

	var empty R

	return empty, ErrRecordNotFound
}
