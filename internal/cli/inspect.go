package cli

import (
	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/instrument"
	"github.com/toyz/dbweave/internal/loader"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/modifier"
	"github.com/toyz/dbweave/internal/resolver"
	"github.com/toyz/dbweave/internal/utils"
)

// InspectReport describes how the prepared-statement policy would
// instrument a type
type InspectReport struct {
	TypeName     string
	Methods      []string
	Excluded     []string
	Operations   []models.Operation
	Interceptors []int
}

// Inspector loads a type and dry-runs the prepared-statement policy on it
type Inspector struct {
	resolver *ModuleResolver
	logger   *zap.Logger
}

// NewInspector creates a new inspector
func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{resolver: NewModuleResolver(), logger: logger}
}

// Inspect reports the bindings for typeName. dir locates the package source;
// when empty the type is resolved through go/packages. A nil exclude keeps
// the default exclusions.
func (i *Inspector) Inspect(typeName, dir string, exclude []string) (*InspectReport, error) {
	typeName, err := i.resolver.QualifyType(typeName, dir)
	if err != nil {
		return nil, err
	}

	l := loader.NewSourceLoader()
	l.SetFallback(loader.NewPackagesLoader("."))
	if dir != "" {
		importPath, _, err := loader.SplitTypeName(typeName)
		if err != nil {
			return nil, err
		}
		l.AddDir(importPath, dir)
	}

	model, err := l.Load(typeName)
	if err != nil {
		return nil, err
	}

	opts := []modifier.Option{modifier.WithLogger(i.logger)}
	exclusions := models.NewExclusionSet(modifier.DefaultExclusions...)
	if exclude != nil {
		opts = append(opts, modifier.WithExclusions(exclude...))
		exclusions = models.NewExclusionSet(exclude...)
	}

	result, err := modifier.NewPreparedStatementModifier(typeName, opts...).Apply(instrument.New(l, instrument.WithLogger(i.logger)))
	if err != nil {
		return nil, err
	}

	report := &InspectReport{
		TypeName:     typeName,
		Operations:   result.Descriptor.Operations,
		Interceptors: result.Descriptor.InterceptorIDs(),
	}
	for _, method := range model.Methods {
		report.Methods = append(report.Methods, method.String())
	}
	for _, method := range resolver.Excluded(model.Methods, exclusions) {
		report.Excluded = append(report.Excluded, method.String())
	}
	return report, nil
}

// Print writes the report through the diagnostic system
func (r *InspectReport) Print(d *utils.DiagnosticSystem) {
	d.Header(r.TypeName)

	d.PhaseHeader("Bindings")
	d.Indent()
	for _, op := range r.Operations {
		switch op.Kind {
		case models.OpAddTraceVariable:
			d.PhaseItem("%s %s %s", op.Kind, op.Variable.FieldName, op.Variable.TypeName)
		default:
			d.PhaseItem("%s %s -> id %d", op.Kind, op.Signature, op.InterceptorID)
		}
	}
	d.Unindent()

	if len(r.Excluded) > 0 {
		d.PhaseHeader("Excluded")
		d.Indent()
		for _, method := range r.Excluded {
			d.PhaseSkip("%s", method)
		}
		d.Unindent()
	}

	d.Summary("Summary", map[string]interface{}{
		"methods":      len(r.Methods),
		"operations":   len(r.Operations),
		"interceptors": len(r.Interceptors),
	})
}
