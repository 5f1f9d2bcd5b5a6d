package fileutil

import (
	"bytes"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// ErrExists is returned by WriteIfMissing when path is already present.
var ErrExists = errors.New("file already exists")

// WriteIfChanged is WriteIfChangedTracked without the report.
func WriteIfChanged(path string, data []byte) error {
	_, err := WriteIfChangedTracked(path, data)
	return err
}

// WriteIfChangedTracked writes data unless path already holds the same bytes,
// creating parent directories as needed. It reports whether it wrote.
func WriteIfChangedTracked(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Errorf("creating directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return false, errors.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, errors.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, errors.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, errors.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, errors.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// WriteIfMissing writes data to path, failing with ErrExists when it is
// already there.
func WriteIfMissing(path string, data []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%s: %w", path, ErrExists)
	} else if !os.IsNotExist(err) {
		return errors.Errorf("failed to inspect %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}
