package modifier

import (
	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/instrument"
)

// Transformer is the load hook: it returns decorator source for types that
// have a modifier and leaves every other type alone
type Transformer struct {
	registry *Registry
	inst     *instrument.Instrumentor
	logger   *zap.Logger
}

// NewTransformer creates a transformer over registry
func NewTransformer(registry *Registry, inst *instrument.Instrumentor, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{registry: registry, inst: inst, logger: logger}
}

// Transform returns the decorator source for typeName. Types without a
// modifier, and types whose modifier fails, are reported as unmodified.
func (t *Transformer) Transform(typeName string) ([]byte, bool) {
	result, ok := t.Apply(typeName)
	if !ok {
		return nil, false
	}
	return result.Source, true
}

// Apply is Transform with the output location and applied operations
func (t *Transformer) Apply(typeName string) (*Result, bool) {
	m, ok := t.registry.Lookup(typeName)
	if !ok {
		t.logger.Debug("no modifier registered", zap.String("type", typeName))
		return nil, false
	}

	result, err := t.apply(m)
	if err != nil {
		t.logger.Warn("transformation failed, using type unmodified",
			zap.String("type", typeName),
			zap.Error(err))
		return nil, false
	}

	t.logger.Info("type transformed",
		zap.String("type", typeName),
		zap.String("output", result.Path),
		zap.Ints("interceptors", result.Descriptor.InterceptorIDs()),
		zap.Int("operations", len(result.Descriptor.Operations)))
	return result, true
}

func (t *Transformer) apply(m Modifier) (*Result, error) {
	if applier, ok := m.(Applier); ok {
		return applier.Apply(t.inst)
	}

	source, err := m.Modify(t.inst)
	if err != nil {
		return nil, err
	}
	class, err := t.inst.Load(m.TargetType())
	if err != nil {
		return nil, err
	}
	return &Result{
		TypeName: m.TargetType(),
		Path:     class.OutputPath(),
		Source:   source,
	}, nil
}
