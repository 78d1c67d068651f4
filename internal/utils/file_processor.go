package utils

import (
	"fmt"
	"go/ast"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GeneratedPrefix marks files written by the generator
const GeneratedPrefix = "autogen_"

// FileProcessor walks source trees and parses package directories
type FileProcessor struct {
	fileReader *FileReader
}

// NewFileProcessor creates a processor with its own FileReader
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithReader(NewFileReader())
}

// NewFileProcessorWithReader creates a processor sharing reader's caches
func NewFileProcessorWithReader(reader *FileReader) *FileProcessor {
	return &FileProcessor{fileReader: reader}
}

// FileFilter decides whether a file is processed
type FileFilter func(path string, entry fs.DirEntry) bool

// DirectoryFilter decides whether a directory is descended into
type DirectoryFilter func(path string, entry fs.DirEntry) bool

// SourceFileFilter selects Go sources, skipping tests and generated files
func SourceFileFilter() FileFilter {
	return func(path string, entry fs.DirEntry) bool {
		if entry.IsDir() {
			return false
		}
		name := entry.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			!strings.HasPrefix(name, GeneratedPrefix)
	}
}

// GeneratedFileFilter selects generated Go files whose name starts with
// GeneratedPrefix followed by kind
func GeneratedFileFilter(kind string) FileFilter {
	prefix := GeneratedPrefix + kind
	return func(path string, entry fs.DirEntry) bool {
		if entry.IsDir() {
			return false
		}
		name := entry.Name()
		return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".go")
	}
}

// DefaultDirectoryFilter skips hidden, vendored and tooling directories
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"_examples":    true,
	}

	return func(path string, entry fs.DirEntry) bool {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}
		return !skipDirs[name]
	}
}

// WalkFiles returns the files under root accepted by fileFilter, sorted
func (fp *FileProcessor) WalkFiles(root string, fileFilter FileFilter, dirFilter DirectoryFilter) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && dirFilter != nil && !dirFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}
		if fileFilter == nil || fileFilter(path, entry) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// ParsePackageDir parses the non-test, non-generated sources of one package
// directory. Files are returned in name order.
func (fp *FileProcessor) ParsePackageDir(dirPath string) ([]*ast.File, string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}

	filter := SourceFileFilter()
	var (
		files       []*ast.File
		packageName string
	)
	for _, entry := range entries {
		filePath := filepath.Join(dirPath, entry.Name())
		if !filter(filePath, entry) {
			continue
		}

		file, err := fp.fileReader.ParseGoFile(filePath)
		if err != nil {
			return nil, "", err
		}

		if packageName == "" {
			packageName = file.Name.Name
		} else if file.Name.Name != packageName {
			return nil, "", fmt.Errorf("multiple packages found in %s: %s and %s", dirPath, packageName, file.Name.Name)
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, "", fmt.Errorf("no Go files found in %s", dirPath)
	}
	return files, packageName, nil
}

// RemoveFiles deletes every file under the roots accepted by filter and
// returns the removed paths
func (fp *FileProcessor) RemoveFiles(roots []string, filter FileFilter) ([]string, error) {
	var removed []string
	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		matches, err := fp.WalkFiles(root, filter, DefaultDirectoryFilter())
		if err != nil {
			return removed, err
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			fp.fileReader.Invalidate(path)
			removed = append(removed, path)
		}
	}
	return removed, nil
}

// FileReader returns the underlying reader
func (fp *FileProcessor) FileReader() *FileReader {
	return fp.fileReader
}
