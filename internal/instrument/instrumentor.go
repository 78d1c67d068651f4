// Package instrument builds decorator source for a loaded target type.
//
// An InstrumentClass records interceptor bindings and trace variables as
// they are applied and renders them into a single generated file placed in
// the target's own package.
package instrument

import (
	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/loader"
)

// WeaveImportPath is the runtime package every decorator depends on
const WeaveImportPath = "github.com/toyz/dbweave/pkg/weave"

// Option configures an Instrumentor
type Option func(*Instrumentor)

// WithLogger sets the logger used for load and serialization events
func WithLogger(logger *zap.Logger) Option {
	return func(i *Instrumentor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Instrumentor loads target types into mutable instrumentation models
type Instrumentor struct {
	loader loader.Loader
	logger *zap.Logger
}

// New creates an Instrumentor reading types through l
func New(l loader.Loader, opts ...Option) *Instrumentor {
	inst := &Instrumentor{
		loader: l,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Load reads typeName ("import/path.Type") and returns a fresh class.
// A missing type is reported as a NotFoundError.
func (i *Instrumentor) Load(typeName string) (*InstrumentClass, error) {
	model, err := i.loader.Load(typeName)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("loaded target type",
		zap.String("type", model.QualifiedName()),
		zap.Int("methods", len(model.Methods)),
		zap.Int("fields", len(model.Fields)))

	return newInstrumentClass(model, i.logger), nil
}
