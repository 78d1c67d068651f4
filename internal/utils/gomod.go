package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// GoModParser reads go.mod files through a shared FileReader
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a parser backed by fileReader
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{fileReader: fileReader}
}

// Parse parses the go.mod file at goModPath
func (p *GoModParser) Parse(goModPath string) (*modfile.File, error) {
	cleanPath := filepath.Clean(goModPath)
	if !strings.HasSuffix(cleanPath, "go.mod") {
		return nil, fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := p.fileReader.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.Parse(cleanPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", cleanPath)
	}
	return modFile, nil
}

// ParseModuleName returns the module path declared in goModPath
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	modFile, err := p.Parse(goModPath)
	if err != nil {
		return "", err
	}
	return modFile.Module.Mod.Path, nil
}

// RequiredVersion returns the version goModPath requires for module, or ""
// when the module is not required
func (p *GoModParser) RequiredVersion(goModPath, module string) (string, error) {
	modFile, err := p.Parse(goModPath)
	if err != nil {
		return "", err
	}
	for _, req := range modFile.Require {
		if req.Mod.Path == module {
			return req.Mod.Version, nil
		}
	}
	return "", nil
}

// FindGoModFile walks up from startDir to the nearest go.mod
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if content, err := p.fileReader.ReadFile(goModPath); err == nil && len(content) > 0 {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found above %s", startDir)
}
