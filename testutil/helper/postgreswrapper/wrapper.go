// Package postgreswrapper opens a postgresstore.Store over one of the supported
// drivers for integration tests. The driver is selected by DB_ADAPTER and the
// database by LIBRARY_TEST_POSTGRES_DSN; tests are skipped when no DSN is set.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jalpatel9108-creator/library-management-system/config"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/postgresstore"
)

// EnvTestDSN names the connection string of the integration test database.
const EnvTestDSN = "LIBRARY_TEST_POSTGRES_DSN"

// Wrapper gives a test the store and a way to empty its tables.
type Wrapper interface {
	Store() *postgresstore.Store
	Truncate(t testing.TB)
	Close()
}

// PGXPoolWrapper wraps a store on a pgx connection pool.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresstore.Store
}

// Store returns the wrapped store.
func (w *PGXPoolWrapper) Store() *postgresstore.Store { return w.store }

// Truncate empties all tables.
func (w *PGXPoolWrapper) Truncate(t testing.TB) {
	_, err := w.pool.Exec(context.Background(), truncateStatement())
	require.NoError(t, err, "error truncating the library tables")
}

// Close closes the pool.
func (w *PGXPoolWrapper) Close() { w.pool.Close() }

// SQLDBWrapper wraps a store on database/sql.
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgresstore.Store
}

// Store returns the wrapped store.
func (w *SQLDBWrapper) Store() *postgresstore.Store { return w.store }

// Truncate empties all tables.
func (w *SQLDBWrapper) Truncate(t testing.TB) {
	_, err := w.db.Exec(truncateStatement())
	require.NoError(t, err, "error truncating the library tables")
}

// Close closes the database handle.
func (w *SQLDBWrapper) Close() { _ = w.db.Close() }

// SQLXWrapper wraps a store on sqlx.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgresstore.Store
}

// Store returns the wrapped store.
func (w *SQLXWrapper) Store() *postgresstore.Store { return w.store }

// Truncate empties all tables.
func (w *SQLXWrapper) Truncate(t testing.TB) {
	_, err := w.db.Exec(truncateStatement())
	require.NoError(t, err, "error truncating the library tables")
}

// Close closes the database handle.
func (w *SQLXWrapper) Close() { _ = w.db.Close() }

// CreateWrapper opens the store for the driver named in DB_ADAPTER (pgx when unset),
// creates the schema and truncates the tables. The wrapper is closed on test cleanup.
func CreateWrapper(t testing.TB, options ...postgresstore.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvTestDSN)
	}

	ctx := context.Background()

	var wrapper Wrapper

	switch adapter := config.DBAdapter(strings.ToLower(os.Getenv(config.EnvDBAdapter))); adapter {
	case config.AdapterPGX, "":
		pool, err := config.OpenPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := postgresstore.NewFromPGXPool(pool, options...)
		require.NoError(t, err)
		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case config.AdapterSQL:
		db, err := config.OpenSQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresstore.NewFromSQLDB(db, options...)
		require.NoError(t, err)
		wrapper = &SQLDBWrapper{db: db, store: store}

	case config.AdapterSQLX:
		db, err := config.OpenSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresstore.NewFromSQLX(db, options...)
		require.NoError(t, err)
		wrapper = &SQLXWrapper{db: db, store: store}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapter))
	}

	t.Cleanup(wrapper.Close)

	require.NoError(t, wrapper.Store().CreateSchema(ctx), "error creating the library schema")
	wrapper.Truncate(t)

	return wrapper
}

func truncateStatement() string {
	names := postgresstore.DefaultTableNames()
	tables := make([]string, 0, len(names))
	for _, name := range names {
		tables = append(tables, name)
	}
	slices.Sort(tables)

	return "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY"
}
