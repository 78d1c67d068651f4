package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/dbweave/internal/errors"
)

// DirectoryScanner resolves directory arguments to absolute roots
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories resolves each argument to an absolute directory. Go-style
// patterns like "./..." are accepted and name their base directory; every
// root is walked recursively. No arguments means the current directory.
func (s *DirectoryScanner) ScanDirectories(rootDirs []string) ([]string, error) {
	if len(rootDirs) == 0 {
		rootDirs = []string{"."}
	}

	seen := make(map[string]bool)
	var cleanDirs []string
	for _, rootDir := range rootDirs {
		baseDir := rootDir
		if strings.HasSuffix(rootDir, "/...") || rootDir == "..." {
			baseDir = strings.TrimSuffix(strings.TrimSuffix(rootDir, "..."), "/")
			if baseDir == "" {
				baseDir = "."
			}
		}

		cleanPath, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, errors.WrapWithOperation("process", fmt.Sprintf("path resolution %s", baseDir), err)
		}

		info, err := os.Stat(cleanPath)
		if err != nil {
			return nil, errors.WrapFileSystemError("stat", cleanPath, err)
		}
		if !info.IsDir() {
			return nil, errors.NewValidationError("directory", "a directory", cleanPath)
		}

		if !seen[cleanPath] {
			seen[cleanPath] = true
			cleanDirs = append(cleanDirs, cleanPath)
		}
	}
	return cleanDirs, nil
}
