package cli

import (
	"fmt"

	"github.com/toyz/dbweave/internal/utils"
)

// GeneratedKind is the file name segment after the autogen prefix
const GeneratedKind = "weave_"

// Cleaner handles cleaning up generated files
type Cleaner struct {
	scanner   *DirectoryScanner
	processor *utils.FileProcessor
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		scanner:   NewDirectoryScanner(),
		processor: utils.NewFileProcessor(),
	}
}

// CleanGeneratedFiles removes every autogen_weave_*.go file below the given
// directories and returns the removed paths
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	roots, err := c.scanner.ScanDirectories(directories)
	if err != nil {
		return nil, err
	}

	removed, err := c.processor.RemoveFiles(roots, utils.GeneratedFileFilter(GeneratedKind))
	if err != nil {
		return removed, fmt.Errorf("failed to clean generated files: %w", err)
	}
	return removed, nil
}
