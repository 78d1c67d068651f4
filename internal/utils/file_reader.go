package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
)

// FileReader parses and reads source files, caching results until the file
// changes on disk. All ASTs share one FileSet.
type FileReader struct {
	fileSet      *token.FileSet
	astCache     *Cache[string, *ast.File]
	contentCache *Cache[string, []byte]
}

// NewFileReader creates a reader with empty caches
func NewFileReader() *FileReader {
	return &FileReader{
		fileSet:      token.NewFileSet(),
		astCache:     NewCache[string, *ast.File](),
		contentCache: NewCache[string, []byte](),
	}
}

// ParseGoFile parses a Go file from disk
func (fr *FileReader) ParseGoFile(filePath string) (*ast.File, error) {
	cleanPath, err := fr.cleanPath(filePath)
	if err != nil {
		return nil, err
	}

	if cached, exists := fr.astCache.GetWithFileValidation(cleanPath, cleanPath); exists {
		return cached, nil
	}

	file, err := parser.ParseFile(fr.fileSet, cleanPath, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go file %s: %w", filepath.Base(cleanPath), err)
	}

	_ = fr.astCache.SetWithFileInfo(cleanPath, file, cleanPath)
	return file, nil
}

// ParseGoSource parses in-memory Go source; the result is not cached
func (fr *FileReader) ParseGoSource(filename string, source []byte) (*ast.File, error) {
	file, err := parser.ParseFile(fr.fileSet, filename, source, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go source %s: %w", filename, err)
	}
	return file, nil
}

// ReadFile returns a file's contents
func (fr *FileReader) ReadFile(filePath string) ([]byte, error) {
	cleanPath, err := fr.cleanPath(filePath)
	if err != nil {
		return nil, err
	}

	if cached, exists := fr.contentCache.GetWithFileValidation(cleanPath, cleanPath); exists {
		return cached, nil
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
	}

	_ = fr.contentCache.SetWithFileInfo(cleanPath, content, cleanPath)
	return content, nil
}

// FileSet returns the FileSet positions are recorded in
func (fr *FileReader) FileSet() *token.FileSet {
	return fr.fileSet
}

// Invalidate drops a file from both caches
func (fr *FileReader) Invalidate(filePath string) {
	cleanPath := filepath.Clean(filePath)
	fr.astCache.Delete(cleanPath)
	fr.contentCache.Delete(cleanPath)
}

func (fr *FileReader) cleanPath(filePath string) (string, error) {
	if err := NotEmpty("filePath")(filePath); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(filePath)
	if _, err := os.Stat(cleanPath); err != nil {
		return "", fmt.Errorf("file does not exist: %s", cleanPath)
	}
	return cleanPath, nil
}
