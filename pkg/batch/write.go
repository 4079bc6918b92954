package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// writeFileAtomic writes data next to path and renames it into place, so a
// reader never observes a partial PNG and a failed write leaves nothing.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mermaidpng-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "create temp file")
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", filepath.Base(path))
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "sync %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "close %s", filepath.Base(path))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "chmod %s", filepath.Base(path))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "rename into %s", path)
	}
	success = true
	return nil
}

// caseInsensitiveDir reports whether dir resolves names without regard to
// case, as on default macOS and Windows volumes. It creates and removes a
// marker file; if that fails the directory is treated as case-sensitive.
func caseInsensitiveDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".mermaidpng-case-*.tmp")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	defer os.Remove(name)

	upper := filepath.Join(dir, strings.ToUpper(filepath.Base(name)))
	if upper == name {
		return false
	}
	_, err = os.Stat(upper)
	return err == nil
}
