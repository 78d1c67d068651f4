package utils

import (
	"fmt"
	"go/format"
	"os"
	"path/filepath"
)

// FormatGoCode formats Go source the way gofmt does
func FormatGoCode(source []byte) ([]byte, error) {
	formatted, err := format.Source(source)
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return formatted, nil
}

// WriteGoFile writes source to filename through a temporary file in the same
// directory so readers never observe a partial file
func WriteGoFile(filename string, source []byte) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".dbweave-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(source); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set mode on %s: %w", filename, err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}
