package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/recordstore/internal/instrument"
)

const (
	backendName = "file"
	filePerm    = 0o644
	dirPerm     = 0o755

	errorTypeRead    = "read_failed"
	errorTypeWrite   = "write_failed"
	errorTypeEncode  = "encode_failed"
	errorTypeCorrupt = "corrupt_collection"
	errorTypeCancel  = "canceled"
)

// DefaultFileNames maps every collection to the file it is stored in.
func DefaultFileNames() map[recordstore.Kind]string {
	return map[recordstore.Kind]string{
		recordstore.KindBooks:    "books.dat",
		recordstore.KindStudents: "students.dat",
		recordstore.KindIssues:   "issues.dat",
	}
}

// FileStore is a recordstore.Store backed by one binary file per collection.
// All primitives of all collections are serialized through one mutex.
type FileStore struct {
	mu         sync.Mutex
	dir        string
	fileNames  map[recordstore.Kind]string
	instrument instrument.Instrument
}

// New creates a FileStore in dir, creating the directory if needed.
func New(dir string, options ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, recordstore.ErrEmptyDirectory
	}

	fs := &FileStore{
		dir:        dir,
		fileNames:  DefaultFileNames(),
		instrument: instrument.Instrument{Backend: backendName},
	}

	for _, option := range options {
		if err := option(fs); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	return fs, nil
}

// Path returns the file path of a collection.
func (fs *FileStore) Path(kind recordstore.Kind) string {
	return filepath.Join(fs.dir, fs.fileNames[kind])
}

// Books returns the Books collection.
func (fs *FileStore) Books() recordstore.KeyedCollection[recordstore.Book] {
	return keyedCollection[recordstore.Book]{collection[recordstore.Book]{fs: fs, kind: recordstore.KindBooks, codec: bookCodec}}
}

// Students returns the Students collection.
func (fs *FileStore) Students() recordstore.KeyedCollection[recordstore.Student] {
	return keyedCollection[recordstore.Student]{collection[recordstore.Student]{fs: fs, kind: recordstore.KindStudents, codec: studentCodec}}
}

// Issues returns the Issues collection.
func (fs *FileStore) Issues() recordstore.Collection[recordstore.Issue] {
	return collection[recordstore.Issue]{fs: fs, kind: recordstore.KindIssues, codec: issueCodec}
}

type collection[R any] struct {
	fs    *FileStore
	kind  recordstore.Kind
	codec codec[R]
}

// LoadAll reads the whole file; a missing file is an empty collection.
func (c collection[R]) LoadAll(ctx context.Context) ([]R, error) {
	ctx, obs := c.fs.instrument.Start(ctx, c.kind, instrument.OperationLoadAll)
	if err := ctx.Err(); err != nil {
		obs.Failure(errorTypeCancel, err)
		return nil, err
	}

	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()

	records, err := c.load()
	if err != nil {
		errorType := errorTypeRead
		if errors.Is(err, recordstore.ErrCorruptCollection) {
			errorType = errorTypeCorrupt
		}
		obs.Failure(errorType, err)

		return nil, err
	}

	obs.Success(len(records))

	return records, nil
}

// load must be called with fs.mu held.
func (c collection[R]) load() ([]R, error) {
	data, err := os.ReadFile(c.fs.Path(c.kind))
	if errors.Is(err, os.ErrNotExist) {
		return []R{}, nil
	}
	if err != nil {
		return nil, errors.Join(recordstore.ErrReadingCollectionFailed, err)
	}

	records, err := c.codec.decodeAll(data)
	if err != nil {
		return nil, errors.Join(recordstore.ErrReadingCollectionFailed, err)
	}

	return records, nil
}

// Append adds one record at the end of the file and syncs it.
func (c collection[R]) Append(ctx context.Context, record R) error {
	ctx, obs := c.fs.instrument.Start(ctx, c.kind, instrument.OperationAppend)
	if err := ctx.Err(); err != nil {
		obs.Failure(errorTypeCancel, err)
		return err
	}

	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()

	if err := c.appendRecord(record); err != nil {
		obs.Failure(errorTypeWrite, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	obs.Success(1)

	return nil
}

func (c collection[R]) appendRecord(record R) error {
	data, err := c.codec.encodeAll([]R{record})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(c.fs.Path(c.kind), os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err != nil {
		return errors.Join(err, f.Close())
	}

	if err = f.Sync(); err != nil {
		return errors.Join(err, f.Close())
	}

	return f.Close()
}

// RewriteAll replaces the file content via a synced temporary file and a rename.
func (c collection[R]) RewriteAll(ctx context.Context, records []R) error {
	ctx, obs := c.fs.instrument.Start(ctx, c.kind, instrument.OperationRewriteAll)
	if err := ctx.Err(); err != nil {
		obs.Failure(errorTypeCancel, err)
		return err
	}

	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()

	data, err := c.codec.encodeAll(records)
	if err != nil {
		obs.Failure(errorTypeEncode, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	if err = c.replace(data); err != nil {
		obs.Failure(errorTypeWrite, err)
		return errors.Join(recordstore.ErrWritingCollectionFailed, err)
	}

	obs.Success(len(records))

	return nil
}

func (c collection[R]) replace(data []byte) error {
	target := c.fs.Path(c.kind)

	tmp, err := os.CreateTemp(c.fs.dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cause
	}

	if _, err = tmp.Write(data); err != nil {
		return cleanup(err)
	}

	if err = tmp.Sync(); err != nil {
		return cleanup(err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err = os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	syncDir(c.fs.dir)

	return nil
}

// syncDir makes the rename durable where the platform supports syncing directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

type keyedCollection[R recordstore.Keyed] struct {
	collection[R]
}

func (c keyedCollection[R]) FindByID(ctx context.Context, id recordstore.ID) (R, error) {
	records, err := c.LoadAll(ctx)
	if err != nil {
		var empty R
		return empty, err
	}

	return recordstore.FindInSlice(records, id)
}

var _ recordstore.Store = (*FileStore)(nil)
