// Package recordstore provides the core abstractions and record types for the
// library's durable collections.
//
// The store holds three collections:
//   - Books: keyed by Book.ID, carries the cached availability flag
//   - Students: keyed by Student.ID
//   - Issues: the append-only loan ledger, kept in insertion order
//
// Every backend offers the same four primitives per collection:
//
//	LoadAll    - read the whole collection in insertion order
//	FindByID   - look up one keyed record (Books and Students only)
//	Append     - add a record at the end of the collection
//	RewriteAll - replace the whole collection in one step
//
// RewriteAll is the only way to update or delete records. Backends must keep
// the old collection readable until the replacement is complete, so a crash in
// the middle of a rewrite never leaves a half-written collection behind.
//
// Common usage pattern:
//
//	books, err := store.Books().LoadAll(ctx)
//	if err != nil {
//		// handle error
//	}
//
//	for i := range books {
//		if books[i].ID == bookID {
//			books[i].Available = false
//		}
//	}
//
//	err = store.Books().RewriteAll(ctx, books)
package recordstore
