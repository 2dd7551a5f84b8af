package postgresstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/internal/instrument"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/postgresstore/internal/adapters"
)

const (
	backendName     = "postgres"
	dialectPostgres = "postgres"

	colSeq        = "seq"
	colID         = "id"
	colTitle      = "title"
	colAuthor     = "author"
	colAvailable  = "available"
	colName       = "name"
	colBookID     = "book_id"
	colStudentID  = "student_id"
	colIssueTime  = "issue_time"
	colDueDays    = "due_days"
	colReturned   = "returned"
	colReturnTime = "return_time"

	logMsgSQLExecuted = "executed sql for: "
	logAttrQuery      = "query"

	errorTypeBuildQuery = "build_query_failed"
	errorTypeQuery      = "query_failed"
	errorTypeScan       = "scan_failed"
	errorTypeExec       = "exec_failed"
)

// DefaultTableNames maps every collection to its table.
func DefaultTableNames() map[recordstore.Kind]string {
	return map[recordstore.Kind]string{
		recordstore.KindBooks:    "books",
		recordstore.KindStudents: "students",
		recordstore.KindIssues:   "issues",
	}
}

// Store is a recordstore.Store backed by PostgreSQL.
type Store struct {
	db         adapters.DBAdapter
	dialect    goqu.DialectWrapper
	tableNames map[recordstore.Kind]string
	instrument instrument.Instrument
}

// NewFromPGXPool creates a Store using a pgx Pool with optional configuration.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, recordstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewFromSQLDB creates a Store using a sql.DB with optional configuration.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, recordstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewFromSQLX creates a Store using a sqlx.DB with optional configuration.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, recordstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:         db,
		dialect:    goqu.Dialect(dialectPostgres),
		tableNames: DefaultTableNames(),
		instrument: instrument.Instrument{Backend: backendName},
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CreateSchema creates the three tables when they do not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.quotedTable(recordstore.KindBooks) + ` (
			seq bigserial PRIMARY KEY,
			id bigint NOT NULL UNIQUE,
			title text NOT NULL,
			author text NOT NULL,
			available boolean NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.quotedTable(recordstore.KindStudents) + ` (
			seq bigserial PRIMARY KEY,
			id bigint NOT NULL UNIQUE,
			name text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.quotedTable(recordstore.KindIssues) + ` (
			seq bigserial PRIMARY KEY,
			book_id bigint NOT NULL,
			student_id bigint NOT NULL,
			issue_time bigint NOT NULL,
			due_days integer NOT NULL,
			returned boolean NOT NULL,
			return_time bigint NOT NULL
		)`,
	}

	if _, err := s.db.Exec(ctx, strings.Join(statements, ";\n")); err != nil {
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	return nil
}

func (s *Store) quotedTable(kind recordstore.Kind) string {
	return `"` + strings.ReplaceAll(s.tableNames[kind], `"`, `""`) + `"`
}

// Books returns the Books collection.
func (s *Store) Books() recordstore.KeyedCollection[recordstore.Book] {
	return keyedTable[recordstore.Book]{table[recordstore.Book]{store: s, kind: recordstore.KindBooks, mapping: bookMapping}}
}

// Students returns the Students collection.
func (s *Store) Students() recordstore.KeyedCollection[recordstore.Student] {
	return keyedTable[recordstore.Student]{table[recordstore.Student]{store: s, kind: recordstore.KindStudents, mapping: studentMapping}}
}

// Issues returns the Issues collection.
func (s *Store) Issues() recordstore.Collection[recordstore.Issue] {
	return table[recordstore.Issue]{store: s, kind: recordstore.KindIssues, mapping: issueMapping}
}

func (s *Store) logSQL(ctx context.Context, action string, query string) {
	if s.instrument.Logger != nil {
		s.instrument.Logger.Debug(logMsgSQLExecuted+action, logAttrQuery, query)
	}
	if s.instrument.ContextualLogger != nil {
		s.instrument.ContextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrQuery, query)
	}
}

var _ recordstore.Store = (*Store)(nil)
