// Package resolver selects the declared methods a policy instruments. It
// replaces naming-convention discovery with an explicit predicate over the
// declared method list, and drops excluded names before anything is offered
// to registration.
package resolver

import (
	"unicode"
	"unicode/utf8"

	"github.com/toyz/dbweave/internal/models"
)

// Convention decides whether a declared method belongs to a method family
type Convention func(method models.Method) bool

// BindSetterPrefix starts every bind setter name
const BindSetterPrefix = "Set"

// BindSetterConvention matches SetXxx(int, value...) methods: the name is
// "Set" followed by an upper-case letter, there are at least two parameters
// and the first one is the int parameter index.
func BindSetterConvention(method models.Method) bool {
	if !IsSetterName(method.Name) {
		return false
	}
	if len(method.Params) < 2 {
		return false
	}
	return method.Params[0].Type == "int"
}

// IsSetterName reports whether name is "Set" followed by an upper-case letter
func IsSetterName(name string) bool {
	if len(name) <= len(BindSetterPrefix) || name[:len(BindSetterPrefix)] != BindSetterPrefix {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[len(BindSetterPrefix):])
	return unicode.IsUpper(r)
}

// NamedConvention matches methods by name only
func NamedConvention(names ...string) Convention {
	set := models.NewExclusionSet(names...)
	return func(method models.Method) bool {
		return set.Contains(method.Name)
	}
}

// Resolve returns the exact signatures of the declared methods that satisfy
// conv and are not excluded, in declaration order. Duplicate signatures are
// reported once.
func Resolve(methods []models.Method, conv Convention, exclusions models.ExclusionSet) []models.TargetMethodSignature {
	var sigs []models.TargetMethodSignature
	seen := make(map[string]bool)
	for _, method := range methods {
		if exclusions.Contains(method.Name) {
			continue
		}
		if conv != nil && !conv(method) {
			continue
		}
		sig := method.Signature()
		if seen[sig.String()] {
			continue
		}
		seen[sig.String()] = true
		sigs = append(sigs, sig)
	}
	return sigs
}

// FromManifest applies the same filter to an explicit list of signatures.
// Exact entries are judged on their own parameter types. Wildcard entries
// are judged against the declared methods of that name; a wildcard naming
// no declared method is kept so registration can report it as not found.
func FromManifest(sigs []models.TargetMethodSignature, declared []models.Method, conv Convention, exclusions models.ExclusionSet) []models.TargetMethodSignature {
	var out []models.TargetMethodSignature
	for _, sig := range sigs {
		if exclusions.Contains(sig.Name) {
			continue
		}
		if conv != nil {
			if sig.Wildcard {
				if !wildcardMatches(sig.Name, declared, conv) {
					continue
				}
			} else if !conv(methodFromSignature(sig)) {
				continue
			}
		}
		out = append(out, sig)
	}
	return out
}

func wildcardMatches(name string, declared []models.Method, conv Convention) bool {
	found := false
	for _, method := range declared {
		if method.Name != name {
			continue
		}
		if conv(method) {
			return true
		}
		found = true
	}
	return !found
}

// Excluded returns the declared methods removed by exclusions
func Excluded(methods []models.Method, exclusions models.ExclusionSet) []models.Method {
	var out []models.Method
	for _, method := range methods {
		if exclusions.Contains(method.Name) {
			out = append(out, method)
		}
	}
	return out
}

func methodFromSignature(sig models.TargetMethodSignature) models.Method {
	method := models.Method{Name: sig.Name}
	for _, typ := range sig.ParamTypes {
		method.Params = append(method.Params, models.Param{Type: typ})
	}
	return method
}
