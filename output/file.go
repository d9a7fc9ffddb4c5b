package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const reportFileMode os.FileMode = 0o644

// WriteReport renders rep in format directly into a temporary file beside
// path and renames it over path once it is complete and synced. A failed
// render or write leaves any previous report at path untouched.
func WriteReport(path string, rep Report, format string) error {
	return replaceFile(path, reportFileMode, func(w io.Writer) error {
		return Render(w, rep, format)
	})
}

// replaceFile fills a temp file in path's directory and renames it into place.
func replaceFile(path string, mode os.FileMode, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = fill(bw); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp report: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
