// Package modifier holds the per-type instrumentation policies and the load
// hook that applies them.
package modifier

import (
	"github.com/toyz/dbweave/internal/instrument"
	"github.com/toyz/dbweave/internal/models"
)

// Modifier instruments one target type
type Modifier interface {
	TargetType() string
	Modify(inst *instrument.Instrumentor) ([]byte, error)
}

// Applier is implemented by modifiers that can report where their output
// belongs along with the applied operations
type Applier interface {
	Apply(inst *instrument.Instrumentor) (*Result, error)
}

// Result is a successful transformation of one type
type Result struct {
	TypeName   string
	Path       string
	Source     []byte
	Descriptor models.ModifierDescriptor
}

// Interceptor references emitted into generated tables
var (
	QueryCaptureRef = models.InterceptorRef{
		Name:       "query-capture",
		Expr:       "weave.NewQueryCaptureInterceptor()",
		ImportPath: instrument.WeaveImportPath,
		ImportName: "weave",
	}
	BindVariableRef = models.InterceptorRef{
		Name:       "bind-variable",
		Expr:       "weave.NewBindVariableInterceptor()",
		ImportPath: instrument.WeaveImportPath,
		ImportName: "weave",
	}
	BindClearRef = models.InterceptorRef{
		Name:       "bind-clear",
		Expr:       "weave.NewBindClearInterceptor()",
		ImportPath: instrument.WeaveImportPath,
		ImportName: "weave",
	}
)
