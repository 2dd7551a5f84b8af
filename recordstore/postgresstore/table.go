package postgresstore

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/internal/instrument"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/postgresstore/internal/adapters"
)

// mapping translates between one record type and its table row.
type mapping[R any] struct {
	columns []any
	row     func(r R) goqu.Record
	scan    func(rows adapters.DBRows) (R, error)
}

var bookMapping = mapping[recordstore.Book]{
	columns: []any{colID, colTitle, colAuthor, colAvailable},
	row: func(b recordstore.Book) goqu.Record {
		return goqu.Record{colID: b.ID, colTitle: b.Title, colAuthor: b.Author, colAvailable: b.Available}
	},
	scan: func(rows adapters.DBRows) (recordstore.Book, error) {
		var b recordstore.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Available); err != nil {
			return recordstore.Book{}, err
		}

		return recordstore.BuildBook(b.ID, b.Title, b.Author, b.Available), nil
	},
}

var studentMapping = mapping[recordstore.Student]{
	columns: []any{colID, colName},
	row: func(s recordstore.Student) goqu.Record {
		return goqu.Record{colID: s.ID, colName: s.Name}
	},
	scan: func(rows adapters.DBRows) (recordstore.Student, error) {
		var s recordstore.Student
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return recordstore.Student{}, err
		}

		return recordstore.BuildStudent(s.ID, s.Name), nil
	},
}

var issueMapping = mapping[recordstore.Issue]{
	columns: []any{colBookID, colStudentID, colIssueTime, colDueDays, colReturned, colReturnTime},
	row: func(i recordstore.Issue) goqu.Record {
		return goqu.Record{
			colBookID:     i.BookID,
			colStudentID:  i.StudentID,
			colIssueTime:  recordstore.ToUnix(i.IssueTime),
			colDueDays:    i.DueDays,
			colReturned:   i.Returned,
			colReturnTime: recordstore.ToUnix(i.ReturnTime),
		}
	},
	scan: func(rows adapters.DBRows) (recordstore.Issue, error) {
		var (
			i          recordstore.Issue
			issueTime  int64
			dueDays    int32
			returnTime int64
		)
		if err := rows.Scan(&i.BookID, &i.StudentID, &issueTime, &dueDays, &i.Returned, &returnTime); err != nil {
			return recordstore.Issue{}, err
		}

		i.IssueTime = recordstore.FromUnix(issueTime)
		i.DueDays = int(dueDays)
		i.ReturnTime = recordstore.FromUnix(returnTime)

		return i, nil
	},
}

type table[R any] struct {
	store   *Store
	kind    recordstore.Kind
	mapping mapping[R]
}

func (t table[R]) name() string {
	return t.store.tableNames[t.kind]
}

func (t table[R]) selectAll() *goqu.SelectDataset {
	return t.store.dialect.
		From(t.name()).
		Select(t.mapping.columns...).
		Order(goqu.C(colSeq).Asc())
}

// LoadAll reads all rows in insertion order.
func (t table[R]) LoadAll(ctx context.Context) ([]R, error) {
	ctx, obs := t.store.instrument.Start(ctx, t.kind, instrument.OperationLoadAll)

	records, errorType, err := t.query(ctx, t.selectAll(), instrument.OperationLoadAll)
	if err != nil {
		obs.Failure(errorType, err)
		return nil, errors.Join(recordstore.ErrReadingCollectionFailed, err)
	}

	obs.Success(len(records))

	return records, nil
}

func (t table[R]) query(ctx context.Context, ds *goqu.SelectDataset, action string) ([]R, string, error) {
	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		return nil, errorTypeBuildQuery, err
	}

	rows, err := t.store.db.Query(ctx, sqlQuery)
	if err != nil {
		return nil, errorTypeQuery, err
	}
	defer func() { _ = rows.Close() }()

	t.store.logSQL(ctx, action, sqlQuery)

	records := make([]R, 0)
	for rows.Next() {
		r, scanErr := t.mapping.scan(rows)
		if scanErr != nil {
			return nil, errorTypeScan, scanErr
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, errorTypeQuery, err
	}

	return records, "", nil
}

// Append inserts one row.
func (t table[R]) Append(ctx context.Context, record R) error {
	ctx, obs := t.store.instrument.Start(ctx, t.kind, instrument.OperationAppend)

	sqlQuery, _, err := t.store.dialect.Insert(t.name()).Rows(t.mapping.row(record)).ToSQL()
	if err != nil {
		obs.Failure(errorTypeBuildQuery, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	if _, err = t.store.db.Exec(ctx, sqlQuery); err != nil {
		obs.Failure(errorTypeExec, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	t.store.logSQL(ctx, instrument.OperationAppend, sqlQuery)
	obs.Success(1)

	return nil
}

// RewriteAll deletes all rows and inserts records in one multi-statement execution.
func (t table[R]) RewriteAll(ctx context.Context, records []R) error {
	ctx, obs := t.store.instrument.Start(ctx, t.kind, instrument.OperationRewriteAll)

	sqlQuery, err := t.buildRewrite(records)
	if err != nil {
		obs.Failure(errorTypeBuildQuery, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	if _, err = t.store.db.Exec(ctx, sqlQuery); err != nil {
		obs.Failure(errorTypeExec, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	t.store.logSQL(ctx, instrument.OperationRewriteAll, sqlQuery)
	obs.Success(len(records))

	return nil
}

func (t table[R]) buildRewrite(records []R) (string, error) {
	deleteSQL, _, err := t.store.dialect.Delete(t.name()).ToSQL()
	if err != nil {
		return "", err
	}

	if len(records) == 0 {
		return deleteSQL, nil
	}

	rows := make([]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, t.mapping.row(r))
	}

	insertSQL, _, err := t.store.dialect.Insert(t.name()).Rows(rows...).ToSQL()
	if err != nil {
		return "", err
	}

	return deleteSQL + ";\n" + insertSQL, nil
}

type keyedTable[R recordstore.Keyed] struct {
	table[R]
}

// FindByID selects the row with the given id.
func (t keyedTable[R]) FindByID(ctx context.Context, id recordstore.ID) (R, error) {
	var empty R

	ctx, obs := t.store.instrument.Start(ctx, t.kind, instrument.OperationFindByID)

	ds := t.selectAll().Where(goqu.C(colID).Eq(id)).Limit(1)

	records, errorType, err := t.query(ctx, ds, instrument.OperationFindByID)
	if err != nil {
		obs.Failure(errorType, err)
		return empty, errors.Join(recordstore.ErrReadingCollectionFailed, err)
	}

	obs.Success(len(records))

	if len(records) == 0 {
		return empty, recordstore.ErrRecordNotFound
	}

	return records[0], nil
}
