// package repositories provides the persistence layer: the JSON playlist store and the SQLite download ledger.
package repositories

import (
	"fmt"
	"os"
	"path/filepath"
)

// renameFunc moves a fully written temp file over its destination.
type renameFunc func(oldpath, newpath string) error

// writeFileAtomic writes data to a temp file beside path, syncs it and renames it over path.
//
// On any failure the temp file is removed and path is left untouched.
func writeFileAtomic(path string, data []byte, rename renameFunc) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
