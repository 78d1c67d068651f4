package models

import (
	"strings"
	"unicode"
)

// TargetMethodSignature selects a method by name and, unless Wildcard is
// set, by its ordered parameter types.
type TargetMethodSignature struct {
	Name       string
	ParamTypes []string
	Wildcard   bool
}

// NewSignature creates an exact signature with canonicalized parameter types
func NewSignature(name string, paramTypes ...string) TargetMethodSignature {
	canonical := make([]string, len(paramTypes))
	for i, paramType := range paramTypes {
		canonical[i] = CanonicalType(paramType)
	}
	return TargetMethodSignature{Name: name, ParamTypes: canonical}
}

// WildcardSignature matches any method with the given name
func WildcardSignature(name string) TargetMethodSignature {
	return TargetMethodSignature{Name: name, Wildcard: true}
}

// Matches reports whether the declared method satisfies this signature
func (s TargetMethodSignature) Matches(method Method) bool {
	if method.Name != s.Name {
		return false
	}
	if s.Wildcard {
		return true
	}
	if len(method.Params) != len(s.ParamTypes) {
		return false
	}
	for i, param := range method.Params {
		if CanonicalType(param.Type) != CanonicalType(s.ParamTypes[i]) {
			return false
		}
	}
	return true
}

// String renders "Name(T1, T2)" or "Name(*)" for wildcards
func (s TargetMethodSignature) String() string {
	if s.Wildcard {
		return s.Name + "(*)"
	}
	return s.Name + "(" + strings.Join(s.ParamTypes, ", ") + ")"
}

// CanonicalType normalizes a type spelling: whitespace is dropped unless it
// separates two identifier characters, which keep a single space.
func CanonicalType(typ string) string {
	var b strings.Builder
	pendingSpace := false
	var last rune
	for _, r := range strings.TrimSpace(typ) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && isIdentRune(last) && isIdentRune(r) {
			b.WriteRune(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
