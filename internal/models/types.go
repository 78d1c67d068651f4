package models

import (
	"fmt"
	"strings"
)

// TypeModel is the loaded, read-only view of a target type
type TypeModel struct {
	PackageName string   // declared package name
	ImportPath  string   // full import path of the package
	Dir         string   // directory holding the package sources
	Name        string   // type name without package qualifier
	Fields      []string // declared field names, embedded fields by type name
	Methods     []Method // declared methods in source order
	Imports     []Import // imports of the files that declare the methods
}

// QualifiedName returns the addressing key "import/path.Type"
func (t *TypeModel) QualifiedName() string {
	if t.ImportPath == "" {
		return t.Name
	}
	return t.ImportPath + "." + t.Name
}

// HasMember reports whether name is a declared field or method
func (t *TypeModel) HasMember(name string) bool {
	for _, field := range t.Fields {
		if field == name {
			return true
		}
	}
	for _, method := range t.Methods {
		if method.Name == name {
			return true
		}
	}
	return false
}

// MethodsNamed returns all declared methods with the given name
func (t *TypeModel) MethodsNamed(name string) []Method {
	var matches []Method
	for _, method := range t.Methods {
		if method.Name == name {
			matches = append(matches, method)
		}
	}
	return matches
}

// Method describes a declared method
type Method struct {
	Name            string
	Params          []Param
	Results         []string
	PointerReceiver bool
}

// ParamTypes returns the canonical parameter type list
func (m Method) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, param := range m.Params {
		types[i] = param.Type
	}
	return types
}

// Signature returns the method's exact-match signature
func (m Method) Signature() TargetMethodSignature {
	return NewSignature(m.Name, m.ParamTypes()...)
}

// String renders the method as "Name(T1, T2) (R1, R2)"
func (m Method) String() string {
	var b strings.Builder
	b.WriteString(m.Signature().String())
	switch len(m.Results) {
	case 0:
	case 1:
		b.WriteString(" " + m.Results[0])
	default:
		b.WriteString(" (" + strings.Join(m.Results, ", ") + ")")
	}
	return b.String()
}

// IsVariadic reports whether the last parameter is variadic
func (m Method) IsVariadic() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].Variadic
}

// Param is a single method parameter
type Param struct {
	Name     string // may be empty or "_"
	Type     string // canonical type, variadic params keep the "..." prefix
	Variadic bool
}

// Import is an import declaration of a target source file
type Import struct {
	Name string // explicit alias, empty when none
	Path string
}

// String renders the import spec as it appears in an import block
func (i Import) String() string {
	if i.Name != "" {
		return fmt.Sprintf("%s %q", i.Name, i.Path)
	}
	return fmt.Sprintf("%q", i.Path)
}
