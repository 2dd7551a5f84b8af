// Package adapters lets the postgres record store run on pgxpool.Pool, sql.DB or sqlx.DB.
// Every adapter exposes the same two primitives; queries are fully rendered SQL strings.
package adapters

import "context"

// DBAdapter defines the database operations needed by the record store.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
