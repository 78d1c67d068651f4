package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/dbweave/internal/models"
)

// ImportManager collects imports for a generated file. Every import is
// emitted with an explicit name so pruning can match uses by identifier.
type ImportManager struct {
	byName map[string]string // name -> path
}

// NewImportManager creates an empty import manager
func NewImportManager() *ImportManager {
	return &ImportManager{byName: make(map[string]string)}
}

// Add registers an import. Without an explicit alias the conventional name
// is the last path element with version suffixes and punctuation removed.
// Adding a different path under a taken name is an error.
func (im *ImportManager) Add(imp models.Import) error {
	name := imp.Name
	if name == "" {
		name = GuessPackageName(imp.Path)
	}
	if existing, ok := im.byName[name]; ok && existing != imp.Path {
		return fmt.Errorf("import name %q refers to both %q and %q", name, existing, imp.Path)
	}
	im.byName[name] = imp.Path
	return nil
}

// Names returns the registered import names
func (im *ImportManager) Names() []string {
	names := make([]string, 0, len(im.byName))
	for name := range im.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateImports renders the import block sorted by path
func (im *ImportManager) GenerateImports() string {
	if len(im.byName) == 0 {
		return ""
	}

	type spec struct{ name, path string }
	specs := make([]spec, 0, len(im.byName))
	for name, path := range im.byName {
		specs = append(specs, spec{name: name, path: path})
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].path == specs[j].path {
			return specs[i].name < specs[j].name
		}
		return specs[i].path < specs[j].path
	})

	var result strings.Builder
	result.WriteString("import (\n")
	for _, s := range specs {
		result.WriteString(fmt.Sprintf("\t%s %q\n", s.name, s.path))
	}
	result.WriteString(")\n")
	return result.String()
}

// GuessPackageName derives the conventional package name for an import path
func GuessPackageName(path string) string {
	elems := strings.Split(path, "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(last) {
		last = elems[len(elems)-2]
	}
	if dot := strings.Index(last, ".v"); dot > 0 && strings.HasPrefix(path, "gopkg.in/") {
		last = last[:dot]
	}
	last = strings.TrimPrefix(last, "go-")
	last = strings.TrimSuffix(last, "-go")

	var b strings.Builder
	for _, r := range last {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9' && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	for _, r := range elem[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
