package loader

import (
	"fmt"
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/utils"
)

// PackagesLoader resolves import paths through the go command, so any
// package reachable from Dir's module can be loaded
type PackagesLoader struct {
	// Dir is the working directory for package resolution
	Dir string

	// Tags are extra build tags
	Tags []string

	cache *utils.Cache[string, *packages.Package]
}

// NewPackagesLoader creates a loader resolving packages relative to dir
func NewPackagesLoader(dir string, tags ...string) *PackagesLoader {
	return &PackagesLoader{
		Dir:   dir,
		Tags:  tags,
		cache: utils.NewCache[string, *packages.Package](),
	}
}

// Load implements Loader
func (l *PackagesLoader) Load(typeName string) (*models.TypeModel, error) {
	importPath, name, err := SplitTypeName(typeName)
	if err != nil {
		return nil, err
	}

	pkg, err := l.cache.GetOrLoad(importPath, func() (*packages.Package, error) {
		return l.loadPackage(importPath)
	})
	if err != nil {
		return nil, err
	}

	var files []*ast.File
	for _, file := range pkg.Syntax {
		filename := filepath.Base(pkg.Fset.Position(file.Package).Filename)
		if strings.HasPrefix(filename, utils.GeneratedPrefix) {
			continue
		}
		files = append(files, file)
	}

	dir := ""
	if len(pkg.GoFiles) > 0 {
		dir = filepath.Dir(pkg.GoFiles[0])
	}
	return Extract(files, pkg.PkgPath, dir, name)
}

func (l *PackagesLoader) loadPackage(importPath string) (*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedSyntax,
		Dir:  l.Dir,
	}
	if len(l.Tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.Tags, ",")}
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, errors.WrapWithOperation("load package", importPath, err)
	}
	if len(pkgs) != 1 {
		notFound := errors.NewTypeNotFoundError(importPath)
		notFound.WithSuggestion(fmt.Sprintf("expected one package for %s, got %d", importPath, len(pkgs)))
		return nil, notFound
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		var multi *errors.MultipleErrors
		for _, pkgErr := range pkg.Errors {
			errors.AddToMultiple(&multi, errors.WrapParseError("package", importPath, pkgErr))
		}
		return nil, multi
	}
	return pkg, nil
}
