// Package postgresstore persists the library collections in PostgreSQL tables.
//
// Each collection maps to one table with a bigserial "seq" column that keeps
// insertion order. Queries are built with goqu and rendered to plain SQL, so the
// store runs unchanged on pgxpool.Pool, sql.DB (lib/pq) or sqlx.DB.
//
// RewriteAll sends DELETE and the INSERT of the new content as one multi-statement
// string. PostgreSQL executes such a simple-protocol string as a single implicit
// transaction, which makes the replacement atomic.
//
// Timestamps are stored as epoch seconds (bigint), matching the file backend.
package postgresstore
