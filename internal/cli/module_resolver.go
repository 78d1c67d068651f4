package cli

import (
	"go/token"
	"path/filepath"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/loader"
	"github.com/toyz/dbweave/internal/utils"
)

// ModuleResolver maps package directories to import paths through go.mod
type ModuleResolver struct {
	parser *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{parser: utils.NewGoModParser(utils.NewFileReader())}
}

// ImportPathForDir builds the full import path of the package in dir from
// the nearest go.mod above it
func (r *ModuleResolver) ImportPathForDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", dir, err)
	}

	goModPath, err := r.parser.FindGoModFile(absDir)
	if err != nil {
		return "", errors.WrapFileSystemError("find go.mod", absDir, err)
	}
	moduleName, err := r.parser.ParseModuleName(goModPath)
	if err != nil {
		return "", errors.WrapFileSystemError("parse", goModPath, err)
	}

	relPath, err := filepath.Rel(filepath.Dir(goModPath), absDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", absDir, err)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == "." {
		return moduleName, nil
	}
	return moduleName + "/" + importPath, nil
}

// QualifyType returns typeName unchanged when it is already qualified, and
// otherwise prefixes it with the import path of dir
func (r *ModuleResolver) QualifyType(typeName, dir string) (string, error) {
	if _, _, err := loader.SplitTypeName(typeName); err == nil {
		return typeName, nil
	}
	if dir == "" || !token.IsIdentifier(typeName) {
		return "", errors.NewValidationError("type name", "import/path.Type, or a type name with a directory", typeName)
	}

	importPath, err := r.ImportPathForDir(dir)
	if err != nil {
		return "", err
	}
	return importPath + "." + typeName, nil
}
