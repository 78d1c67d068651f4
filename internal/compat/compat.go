// Package compat decides whether a target library version can be
// instrumented safely.
package compat

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/utils"
)

// Checker reports whether a loaded type may be transformed
type Checker interface {
	Check(model *models.TypeModel) error
}

// Nop accepts every type
type Nop struct{}

// Check implements Checker
func (Nop) Check(*models.TypeModel) error { return nil }

// ModuleRequirement requires the target's module to depend on Module at a
// version satisfying Constraint, e.g. ">= v1.5.0" or "< v2.0.0".
// Constraints may be joined with commas and all must hold.
type ModuleRequirement struct {
	Module     string
	Constraint string
	parser     *utils.GoModParser
}

// NewModuleRequirement creates a requirement checked against go.mod files
func NewModuleRequirement(module, constraint string) *ModuleRequirement {
	return &ModuleRequirement{
		Module:     module,
		Constraint: constraint,
		parser:     utils.NewGoModParser(utils.NewFileReader()),
	}
}

// Check implements Checker. A type declared inside Module itself passes.
func (r *ModuleRequirement) Check(model *models.TypeModel) error {
	if model.ImportPath == r.Module || strings.HasPrefix(model.ImportPath, r.Module+"/") {
		return nil
	}
	if model.Dir == "" {
		return errors.NewCompatibilityError(r.Module, "", r.Constraint)
	}

	goModPath, err := r.parser.FindGoModFile(model.Dir)
	if err != nil {
		return errors.WrapFileSystemError("find go.mod", model.Dir, err)
	}

	modulePath, err := r.parser.ParseModuleName(goModPath)
	if err != nil {
		return errors.WrapFileSystemError("parse", goModPath, err)
	}
	if modulePath == r.Module {
		return nil
	}

	version, err := r.parser.RequiredVersion(goModPath, r.Module)
	if err != nil {
		return errors.WrapFileSystemError("parse", goModPath, err)
	}
	if version == "" {
		return errors.NewCompatibilityError(r.Module, "", r.Constraint)
	}

	ok, err := Satisfies(version, r.Constraint)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewCompatibilityError(r.Module, version, r.Constraint)
	}
	return nil
}

// Satisfies evaluates a comma separated constraint list against version.
// An empty constraint accepts any valid version.
func Satisfies(version, constraint string) (bool, error) {
	if !semver.IsValid(version) {
		return false, errors.NewValidationError("version", "semantic version", version)
	}

	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		op, want, err := splitClause(clause)
		if err != nil {
			return false, err
		}

		cmp := semver.Compare(version, want)
		var ok bool
		switch op {
		case ">=":
			ok = cmp >= 0
		case ">":
			ok = cmp > 0
		case "<=":
			ok = cmp <= 0
		case "<":
			ok = cmp < 0
		case "=", "==":
			ok = cmp == 0
		case "!=":
			ok = cmp != 0
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func splitClause(clause string) (string, string, error) {
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<", "="} {
		if strings.HasPrefix(clause, op) {
			version := strings.TrimSpace(strings.TrimPrefix(clause, op))
			if !strings.HasPrefix(version, "v") {
				version = "v" + version
			}
			if !semver.IsValid(version) {
				return "", "", errors.NewValidationError("constraint", "operator followed by a semantic version", clause)
			}
			return op, version, nil
		}
	}
	return "", "", errors.NewValidationError("constraint", "one of >=, >, <=, <, =, !=", clause)
}

// Describe renders the requirement for diagnostics
func (r *ModuleRequirement) Describe() string {
	return fmt.Sprintf("%s %s", r.Module, r.Constraint)
}

// ValidateConstraint checks the syntax of a constraint list
func ValidateConstraint(constraint string) error {
	_, err := Satisfies("v0.0.0", constraint)
	return err
}
