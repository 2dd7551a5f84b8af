package reporting

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// ErrExportFailed is returned when a report file could not be written.
var ErrExportFailed = errors.New("exporting report failed")

// ExportFile writes a report into path through write. The file only appears once it is complete.
func ExportFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Join(ErrExportFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	buf := bufio.NewWriter(tmp)
	if err = write(buf); err == nil {
		err = buf.Flush()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Join(ErrExportFailed, err)
	}

	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Join(ErrExportFailed, err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Join(ErrExportFailed, err)
	}

	return nil
}
