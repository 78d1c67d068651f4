package instrument

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/templates"
)

// reservedMember is the decorator's own lock field
const reservedMember = "weaveMu"

// binding attaches one declared method to an interceptor id
type binding struct {
	method models.Method
	id     int
}

// InstrumentClass is the mutable instrumentation model of one target type
type InstrumentClass struct {
	model         *models.TypeModel
	registrations []models.InterceptorRegistration // index is the id
	bindings      []binding
	variables     []models.TraceVariable
	descriptor    models.ModifierDescriptor
	logger        *zap.Logger
}

func newInstrumentClass(model *models.TypeModel, logger *zap.Logger) *InstrumentClass {
	return &InstrumentClass{
		model:      model,
		descriptor: models.ModifierDescriptor{TargetType: model.QualifiedName()},
		logger:     logger,
	}
}

// Model returns the loaded target type
func (c *InstrumentClass) Model() *models.TypeModel {
	return c.model
}

// Descriptor returns the operations applied so far, in order
func (c *InstrumentClass) Descriptor() models.ModifierDescriptor {
	ops := make([]models.Operation, len(c.descriptor.Operations))
	copy(ops, c.descriptor.Operations)
	return models.ModifierDescriptor{TargetType: c.descriptor.TargetType, Operations: ops}
}

// OutputPath returns where the generated decorator belongs
func (c *InstrumentClass) OutputPath() string {
	name := templates.OutputFileName(c.model.Name)
	if c.model.Dir == "" {
		return name
	}
	return filepath.Join(c.model.Dir, name)
}

// Registrations returns the interceptor registrations ordered by id
func (c *InstrumentClass) Registrations() []models.InterceptorRegistration {
	regs := make([]models.InterceptorRegistration, len(c.registrations))
	copy(regs, c.registrations)
	return regs
}

// BoundID returns the interceptor id bound to the named method
func (c *InstrumentClass) BoundID(methodName string) (int, bool) {
	for _, b := range c.bindings {
		if b.method.Name == methodName {
			return b.id, true
		}
	}
	return 0, false
}

// AddInterceptor binds a new interceptor instance to the method selected by
// name and params. A nil params slice matches by name only. It returns the
// freshly allocated id, or a NotFoundError when nothing matches.
func (c *InstrumentClass) AddInterceptor(name string, params []string, ref models.InterceptorRef) (int, error) {
	sig := signatureOf(name, params)
	matched, err := c.match(sig)
	if err != nil {
		return 0, err
	}

	id := len(c.registrations)
	c.registrations = append(c.registrations, models.InterceptorRegistration{
		ID:          id,
		Interceptor: ref,
		Signatures:  []models.TargetMethodSignature{sig},
	})
	c.bind(matched, id)
	c.descriptor.Operations = append(c.descriptor.Operations, models.Operation{
		Kind:          models.OpAddInterceptor,
		Signature:     sig,
		InterceptorID: id,
	})

	c.logger.Debug("interceptor added",
		zap.String("type", c.model.QualifiedName()),
		zap.String("method", sig.String()),
		zap.String("interceptor", ref.Name),
		zap.Int("id", id))
	return id, nil
}

// ReuseInterceptor binds an existing id to another method so both share
// one interceptor instance. An unknown id is a StructuralError.
func (c *InstrumentClass) ReuseInterceptor(name string, params []string, id int) error {
	sig := signatureOf(name, params)
	if id < 0 || id >= len(c.registrations) {
		return errors.NewStructuralError(c.model.QualifiedName(), "reuse",
			fmt.Sprintf("interceptor id %d was never allocated for %s", id, sig))
	}

	matched, err := c.match(sig)
	if err != nil {
		return err
	}

	c.registrations[id].Signatures = append(c.registrations[id].Signatures, sig)
	c.bind(matched, id)
	c.descriptor.Operations = append(c.descriptor.Operations, models.Operation{
		Kind:          models.OpReuseInterceptor,
		Signature:     sig,
		InterceptorID: id,
	})

	c.logger.Debug("interceptor reused",
		zap.String("type", c.model.QualifiedName()),
		zap.String("method", sig.String()),
		zap.Int("id", id))
	return nil
}

// AddTraceVariable injects per-instance state with a locked getter and
// setter. Names must be valid identifiers that collide with nothing on the
// target or the decorator; typeName and initializer must parse as Go
// expressions. An empty initializer keeps the zero value.
func (c *InstrumentClass) AddTraceVariable(field, setter, getter, typeName, initializer string) error {
	qualified := c.model.QualifiedName()
	fail := func(format string, args ...interface{}) error {
		return errors.NewStructuralError(qualified, "add-trace-variable", fmt.Sprintf(format, args...))
	}

	names := []string{field, setter, getter}
	for _, name := range names {
		if !token.IsIdentifier(name) {
			return fail("%q is not a valid identifier", name)
		}
	}
	if field == setter || field == getter || setter == getter {
		return fail("field, setter and getter names must differ: %s/%s/%s", field, setter, getter)
	}

	if _, err := parser.ParseExpr(typeName); err != nil {
		return errors.WrapStructuralError(qualified, "add-trace-variable",
			fmt.Errorf("type %q: %w", typeName, err))
	}
	if initializer != "" {
		if _, err := parser.ParseExpr(initializer); err != nil {
			return errors.WrapStructuralError(qualified, "add-trace-variable",
				fmt.Errorf("initializer %q: %w", initializer, err))
		}
	}

	taken := c.takenNames()
	for _, name := range names {
		if owner, ok := taken[name]; ok {
			return fail("%s collides with %s", name, owner)
		}
	}

	variable := models.TraceVariable{
		FieldName:   field,
		SetterName:  setter,
		GetterName:  getter,
		TypeName:    typeName,
		Initializer: initializer,
	}
	c.variables = append(c.variables, variable)
	c.descriptor.Operations = append(c.descriptor.Operations, models.Operation{
		Kind:     models.OpAddTraceVariable,
		Variable: variable,
	})

	c.logger.Debug("trace variable added",
		zap.String("type", qualified),
		zap.String("field", field),
		zap.String("type_name", typeName))
	return nil
}

// takenNames maps every identifier a new decorator member could clash with
// to a description of its owner
func (c *InstrumentClass) takenNames() map[string]string {
	taken := map[string]string{
		c.model.Name:   "the embedded target",
		reservedMember: "the decorator lock",
	}
	for _, field := range c.model.Fields {
		taken[field] = "field " + field
	}
	for _, method := range c.model.Methods {
		taken[method.Name] = "method " + method.Name
	}
	for _, v := range c.variables {
		owner := "trace variable " + v.FieldName
		taken[v.FieldName] = owner
		taken[v.SetterName] = owner
		taken[v.GetterName] = owner
	}
	return taken
}

func (c *InstrumentClass) match(sig models.TargetMethodSignature) ([]models.Method, error) {
	var matched []models.Method
	for _, method := range c.model.Methods {
		if sig.Matches(method) {
			matched = append(matched, method)
		}
	}
	if len(matched) == 0 {
		return nil, errors.NewMethodNotFoundError(c.model.QualifiedName(), sig.String())
	}
	return matched, nil
}

func (c *InstrumentClass) bind(methods []models.Method, id int) {
	for _, method := range methods {
		c.bindings = append(c.bindings, binding{method: method, id: id})
	}
}

func signatureOf(name string, params []string) models.TargetMethodSignature {
	if params == nil {
		return models.WildcardSignature(name)
	}
	return models.NewSignature(name, params...)
}
