package recordstore

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrSnapshotFileNotFound is returned when a backup file does not exist.
var ErrSnapshotFileNotFound = errors.New("snapshot file not found")

// DefaultSnapshotFileName is the backup file written by WriteSnapshotFile callers by default.
const DefaultSnapshotFileName = "library_backup.json"

// WriteSnapshotFile encodes snapshot and replaces path with it. The previous file stays
// intact until the new one is completely written.
func WriteSnapshotFile(path string, snapshot Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return errors.Join(ErrWritingCollectionFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Join(ErrWritingCollectionFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		return errors.Join(ErrWritingCollectionFailed, err)
	}

	return nil
}

// ReadSnapshotFile reads and decodes a file written by WriteSnapshotFile.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, errors.Join(ErrSnapshotFileNotFound, err)
	}
	if err != nil {
		return Snapshot{}, errors.Join(ErrReadingCollectionFailed, err)
	}

	return DecodeSnapshot(data)
}
