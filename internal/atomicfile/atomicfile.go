// Package atomicfile replaces files without leaving partial writes behind.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFile writes data to a temp file beside path, syncs it, and renames it
// over path. A perm of 0 keeps the mode of an existing file, or 0644.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	// Not every filesystem supports chmod.
	_ = tmp.Chmod(resolvePerm(path, perm))

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := replace(tmpPath, path); err != nil {
		return err
	}
	committed = true
	return nil
}

func resolvePerm(path string, perm os.FileMode) os.FileMode {
	if perm != 0 {
		return perm
	}
	if st, err := os.Stat(path); err == nil {
		return st.Mode().Perm()
	}
	return 0o644
}

// replace renames src over dst. Windows refuses to rename onto an existing
// file, so the second attempt removes dst first.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	_ = os.Remove(dst)
	if err2 := os.Rename(src, dst); err2 != nil {
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
