package models

import "sort"

// InterceptorRef tells generated code how to construct an interceptor
type InterceptorRef struct {
	Name       string // human readable, used in diagnostics
	Expr       string // constructor expression, e.g. weave.NewQueryCaptureInterceptor()
	ImportPath string // package the expression needs, empty for none
	ImportName string // identifier the expression uses for that package
}

// Import returns the import declaration Expr depends on
func (r InterceptorRef) Import() (Import, bool) {
	if r.ImportPath == "" {
		return Import{}, false
	}
	return Import{Name: r.ImportName, Path: r.ImportPath}, true
}

// InterceptorRegistration binds one interceptor instance to every signature
// that shares its id
type InterceptorRegistration struct {
	ID          int
	Interceptor InterceptorRef
	Signatures  []TargetMethodSignature
}

// TraceVariable is per-instance state injected into a target type
type TraceVariable struct {
	FieldName   string
	SetterName  string
	GetterName  string
	TypeName    string
	Initializer string // Go expression; empty keeps the zero value
}

// OperationKind enumerates the instrumentation operations a descriptor records
type OperationKind int

const (
	OpAddInterceptor OperationKind = iota
	OpReuseInterceptor
	OpAddTraceVariable
)

// String returns the operation name
func (k OperationKind) String() string {
	switch k {
	case OpAddInterceptor:
		return "add-interceptor"
	case OpReuseInterceptor:
		return "reuse-interceptor"
	case OpAddTraceVariable:
		return "add-trace-variable"
	default:
		return "unknown"
	}
}

// Operation is one applied instrumentation step
type Operation struct {
	Kind          OperationKind
	Signature     TargetMethodSignature // interceptor operations
	InterceptorID int                   // interceptor operations
	Variable      TraceVariable         // trace variable operations
}

// ModifierDescriptor is the ordered list of operations applied to one type
type ModifierDescriptor struct {
	TargetType string
	Operations []Operation
}

// InterceptorIDs returns the distinct interceptor ids in ascending order
func (d ModifierDescriptor) InterceptorIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, op := range d.Operations {
		if op.Kind == OpAddTraceVariable {
			continue
		}
		if !seen[op.InterceptorID] {
			seen[op.InterceptorID] = true
			ids = append(ids, op.InterceptorID)
		}
	}
	sort.Ints(ids)
	return ids
}

// ExclusionSet holds method names that must never be wrapped
type ExclusionSet map[string]struct{}

// NewExclusionSet creates an exclusion set from names
func NewExclusionSet(names ...string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is excluded; exclusion ignores parameter types
func (e ExclusionSet) Contains(name string) bool {
	_, excluded := e[name]
	return excluded
}

// Names returns the excluded names sorted
func (e ExclusionSet) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
