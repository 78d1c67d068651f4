// Package loader reads the declaration of a target type and its methods from
// Go source, producing the model the instrument engine works on.
package loader

import (
	"fmt"
	"go/ast"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/utils"
)

// Loader resolves a qualified type name ("import/path.Type") to its model
type Loader interface {
	Load(typeName string) (*models.TypeModel, error)
}

type memorySource struct {
	filename string
	content  []byte
}

// SourceLoader loads types from directories registered per import path or
// from in-memory sources. Generated files are never read.
type SourceLoader struct {
	mu        sync.RWMutex
	dirs      map[string]string
	sources   map[string][]memorySource
	fallback  Loader
	processor *utils.FileProcessor
}

// NewSourceLoader creates an empty loader
func NewSourceLoader() *SourceLoader {
	return &SourceLoader{
		dirs:      make(map[string]string),
		sources:   make(map[string][]memorySource),
		processor: utils.NewFileProcessor(),
	}
}

// AddDir maps importPath to the directory holding its sources
func (l *SourceLoader) AddDir(importPath, dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs[importPath] = dir
}

// AddSource adds an in-memory file to importPath
func (l *SourceLoader) AddSource(importPath, filename string, content []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[importPath] = append(l.sources[importPath], memorySource{filename: filename, content: content})
}

// SetFallback sets the loader used for import paths that were never
// registered
func (l *SourceLoader) SetFallback(fallback Loader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = fallback
}

// ImportPaths returns every registered import path
func (l *SourceLoader) ImportPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var paths []string
	for path := range l.dirs {
		seen[path] = true
		paths = append(paths, path)
	}
	for path := range l.sources {
		if !seen[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Load implements Loader
func (l *SourceLoader) Load(typeName string) (*models.TypeModel, error) {
	importPath, name, err := SplitTypeName(typeName)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	dir, hasDir := l.dirs[importPath]
	sources := l.sources[importPath]
	fallback := l.fallback
	l.mu.RUnlock()

	var files []*ast.File
	switch {
	case hasDir:
		files, _, err = l.processor.ParsePackageDir(dir)
		if err != nil {
			return nil, errors.WrapFileSystemError("load", dir, err)
		}
	case len(sources) > 0:
		for _, src := range sources {
			if strings.HasPrefix(filepath.Base(src.filename), utils.GeneratedPrefix) {
				continue
			}
			file, err := l.processor.FileReader().ParseGoSource(src.filename, src.content)
			if err != nil {
				return nil, errors.WrapParseError("source", src.filename, err)
			}
			files = append(files, file)
		}
	case fallback != nil:
		return fallback.Load(typeName)
	default:
		notFound := errors.NewTypeNotFoundError(typeName)
		notFound.WithSuggestion(fmt.Sprintf("register the directory of %s with the loader", importPath))
		return nil, notFound
	}

	return Extract(files, importPath, dir, name)
}
