package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/toyz/dbweave/internal/compat"
	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/loader"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/signature"
	"github.com/toyz/dbweave/internal/utils"
)

// ModifierPreparedStatement selects the prepared-statement policy
const ModifierPreparedStatement = "prepared-statement"

var methodName = utils.NewValidatorChain(utils.IsValidGoIdentifier("method"), utils.IsExported("method"))

// ManifestNames are the file names FindManifest looks for, in order
var ManifestNames = []string{"dbweave.yaml", "dbweave.yml", "dbweave.toml"}

// Manifest lists the types to instrument
type Manifest struct {
	Targets []Target `yaml:"targets" toml:"targets"`

	// Dir is the directory containing the manifest (set at load time)
	Dir string `yaml:"-" toml:"-"`
}

// Target configures the instrumentation of one type
type Target struct {
	Type     string       `yaml:"type" toml:"type"` // qualified, or bare when Dir is set
	Modifier string       `yaml:"modifier" toml:"modifier"`
	Dir      string       `yaml:"dir" toml:"dir"`
	Exclude  []string     `yaml:"exclude" toml:"exclude"`
	Methods  []string     `yaml:"methods" toml:"methods"`
	Execute  Execute      `yaml:"execute" toml:"execute"`
	Clear    string       `yaml:"clear" toml:"clear"`
	Requires *Requirement `yaml:"requires" toml:"requires"`
}

// Execute names the query and update methods
type Execute struct {
	Query  string `yaml:"query" toml:"query"`
	Update string `yaml:"update" toml:"update"`
}

// Requirement is a module version constraint checked before transforming
type Requirement struct {
	Module  string `yaml:"module" toml:"module"`
	Version string `yaml:"version" toml:"version"`
}

// LoadManifest reads a YAML or TOML manifest, chosen by file extension
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	m, err := ParseManifest(filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.WrapFileSystemError("resolve", path, err)
	}
	return m, nil
}

// ParseManifest decodes manifest data; ext selects the format
func ParseManifest(ext string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.WrapConfigurationError("manifest", "parse", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.WrapConfigurationError("manifest", "parse", err)
		}
	default:
		return nil, errors.ConfigurationError("manifest", fmt.Sprintf("unsupported format %q", ext))
	}

	for i := range m.Targets {
		if m.Targets[i].Modifier == "" {
			m.Targets[i].Modifier = ModifierPreparedStatement
		}
	}
	return &m, nil
}

// FindManifest walks up from startDir to the first manifest file. It
// returns "" when there is none.
func FindManifest(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", startDir, err)
	}

	for {
		for _, name := range ManifestNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate reports every problem in the manifest at once
func (m *Manifest) Validate() error {
	var problems *errors.MultipleErrors

	if len(m.Targets) == 0 {
		errors.AddValidationError(&problems, "targets", "at least one target", "none")
	}

	seen := make(map[string]bool)
	for i, target := range m.Targets {
		field := fmt.Sprintf("targets[%d]", i)

		if !validTypeName(target) {
			errors.AddValidationError(&problems, field+".type", "import/path.Type, or a type name with dir", target.Type)
		} else if seen[target.Type] {
			errors.AddValidationError(&problems, field+".type", "a type listed once", target.Type+" (duplicate)")
		}
		seen[target.Type] = true

		if err := utils.IsOneOf(field+".modifier", ModifierPreparedStatement)(target.Modifier); err != nil {
			errors.AddValidationError(&problems, field+".modifier", ModifierPreparedStatement, target.Modifier)
		}
		if err := utils.ValidateEach(field+".exclude", utils.IsValidGoIdentifier("method"))(target.Exclude); err != nil {
			errors.AddToMultiple(&problems, errors.NewValidationError(field+".exclude", "method names", err.Error()))
		}
		for _, m := range []struct{ key, name string }{
			{".execute.query", target.Execute.Query},
			{".execute.update", target.Execute.Update},
			{".clear", target.Clear},
		} {
			if m.name == "" {
				continue
			}
			if err := methodName.Validate(m.name); err != nil {
				errors.AddValidationError(&problems, field+m.key, "an exported method name", m.name)
			}
		}

		if _, err := signature.ParseAll(target.Methods); err != nil {
			if multi, ok := err.(*errors.MultipleErrors); ok {
				for _, sigErr := range multi.Errors {
					errors.AddToMultiple(&problems, sigErr)
				}
			}
		}

		if target.Requires != nil {
			if target.Requires.Module == "" {
				errors.AddValidationError(&problems, field+".requires.module", "a module path", "empty")
			}
			if err := compat.ValidateConstraint(target.Requires.Version); err != nil {
				errors.AddValidationError(&problems, field+".requires.version", "a version constraint", target.Requires.Version)
			}
		}
	}

	return problems.ErrOrNil()
}

// validTypeName accepts a qualified name, or a bare identifier when the
// target's directory locates its package
func validTypeName(t Target) bool {
	if _, _, err := loader.SplitTypeName(t.Type); err == nil {
		return true
	}
	return t.Dir != "" && token.IsIdentifier(t.Type)
}

// ManifestSignatures parses the target's method list
func (t Target) ManifestSignatures() ([]models.TargetMethodSignature, error) {
	return signature.ParseAll(t.Methods)
}

// SourceDir resolves the target's source directory against the manifest
func (m *Manifest) SourceDir(t Target) string {
	if t.Dir == "" || filepath.IsAbs(t.Dir) {
		return t.Dir
	}
	return filepath.Join(m.Dir, t.Dir)
}
