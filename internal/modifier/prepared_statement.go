package modifier

import (
	"go.uber.org/zap"

	"github.com/toyz/dbweave/internal/compat"
	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/instrument"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/resolver"
)

// Defaults for prepared-statement style types
var (
	DefaultExclusions   = []string{"SetRowID", "SetNClob", "SetSQLXML"}
	DefaultQueryMethod  = "ExecuteQuery"
	DefaultUpdateMethod = "ExecuteUpdate"
	DefaultClearMethod  = "ClearParameters"
)

// Trace variables injected into every prepared statement
var traceVariables = []models.TraceVariable{
	{FieldName: "traceURL", SetterName: "SetTraceURL", GetterName: "TraceURL", TypeName: "string"},
	{FieldName: "traceSQL", SetterName: "SetTraceSQL", GetterName: "TraceSQL", TypeName: "string"},
	{FieldName: "traceBindValues", SetterName: "SetTraceBindValues", GetterName: "TraceBindValues",
		TypeName: "*weave.BindValueMap", Initializer: "weave.NewBindValueMap()"},
}

// Option configures a PreparedStatementModifier
type Option func(*PreparedStatementModifier)

// WithExclusions replaces the default exclusion list
func WithExclusions(names ...string) Option {
	return func(m *PreparedStatementModifier) {
		m.exclusions = models.NewExclusionSet(names...)
	}
}

// WithExecuteMethods overrides the query and update method names; an empty
// name keeps the default
func WithExecuteMethods(query, update string) Option {
	return func(m *PreparedStatementModifier) {
		if query != "" {
			m.queryMethod = query
		}
		if update != "" {
			m.updateMethod = update
		}
	}
}

// WithClearMethod overrides the bind-clearing method name
func WithClearMethod(name string) Option {
	return func(m *PreparedStatementModifier) {
		if name != "" {
			m.clearMethod = name
		}
	}
}

// WithManifest binds the listed signatures instead of the declared methods
func WithManifest(sigs []models.TargetMethodSignature) Option {
	return func(m *PreparedStatementModifier) {
		m.manifest = sigs
	}
}

// WithChecker sets the compatibility check run before any mutation
func WithChecker(checker compat.Checker) Option {
	return func(m *PreparedStatementModifier) {
		if checker != nil {
			m.checker = checker
		}
	}
}

// WithLogger sets the logger for skipped bindings
func WithLogger(logger *zap.Logger) Option {
	return func(m *PreparedStatementModifier) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// PreparedStatementModifier captures the SQL, connection URL and bind
// values of a prepared-statement type
type PreparedStatementModifier struct {
	targetType   string
	exclusions   models.ExclusionSet
	queryMethod  string
	updateMethod string
	clearMethod  string
	manifest     []models.TargetMethodSignature
	checker      compat.Checker
	logger       *zap.Logger
}

// NewPreparedStatementModifier creates the policy for targetType
func NewPreparedStatementModifier(targetType string, opts ...Option) *PreparedStatementModifier {
	m := &PreparedStatementModifier{
		targetType:   targetType,
		exclusions:   models.NewExclusionSet(DefaultExclusions...),
		queryMethod:  DefaultQueryMethod,
		updateMethod: DefaultUpdateMethod,
		clearMethod:  DefaultClearMethod,
		checker:      compat.Nop{},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TargetType implements Modifier
func (m *PreparedStatementModifier) TargetType() string {
	return m.targetType
}

// Modify implements Modifier
func (m *PreparedStatementModifier) Modify(inst *instrument.Instrumentor) ([]byte, error) {
	result, err := m.Apply(inst)
	if err != nil {
		return nil, err
	}
	return result.Source, nil
}

// Apply implements Applier. Missing methods are skipped; a failed
// compatibility check or any structural problem aborts the whole type.
func (m *PreparedStatementModifier) Apply(inst *instrument.Instrumentor) (*Result, error) {
	class, err := inst.Load(m.targetType)
	if err != nil {
		return nil, err
	}

	if err := m.checker.Check(class.Model()); err != nil {
		return nil, err
	}

	if err := m.bindExecuteMethods(class); err != nil {
		return nil, err
	}

	for _, v := range traceVariables {
		if err := class.AddTraceVariable(v.FieldName, v.SetterName, v.GetterName, v.TypeName, v.Initializer); err != nil {
			return nil, err
		}
	}

	if err := m.bindSetters(class); err != nil {
		return nil, err
	}

	if err := m.bindClear(class); err != nil {
		return nil, err
	}

	source, err := class.Serialize()
	if err != nil {
		return nil, err
	}

	return &Result{
		TypeName:   m.targetType,
		Path:       class.OutputPath(),
		Source:     source,
		Descriptor: class.Descriptor(),
	}, nil
}

// bindExecuteMethods wraps the query and update methods with one shared
// query-capture interceptor
func (m *PreparedStatementModifier) bindExecuteMethods(class *instrument.InstrumentClass) error {
	captureID := -1
	for _, name := range []string{m.queryMethod, m.updateMethod} {
		if m.exclusions.Contains(name) {
			m.skipped(name, "excluded")
			continue
		}

		var err error
		if captureID < 0 {
			captureID, err = class.AddInterceptor(name, nil, QueryCaptureRef)
			if err != nil {
				captureID = -1
			}
		} else {
			err = class.ReuseInterceptor(name, nil, captureID)
		}
		if err := m.recoverable(name, err); err != nil {
			return err
		}
	}
	return nil
}

// bindSetters wraps every resolved bind setter with one shared
// bind-variable interceptor
func (m *PreparedStatementModifier) bindSetters(class *instrument.InstrumentClass) error {
	var sigs []models.TargetMethodSignature
	if m.manifest != nil {
		sigs = resolver.FromManifest(m.manifest, class.Model().Methods, resolver.BindSetterConvention, m.exclusions)
		m.skipNonSetters(sigs)
	} else {
		sigs = resolver.Resolve(class.Model().Methods, resolver.BindSetterConvention, m.exclusions)
	}

	bindID := -1
	for _, sig := range sigs {
		params := sig.ParamTypes
		if sig.Wildcard {
			params = nil
		}

		var err error
		if bindID < 0 {
			bindID, err = class.AddInterceptor(sig.Name, params, BindVariableRef)
			if err != nil {
				bindID = -1
			}
		} else {
			err = class.ReuseInterceptor(sig.Name, params, bindID)
		}
		if err := m.recoverable(sig.String(), err); err != nil {
			return err
		}
	}
	return nil
}

// skipNonSetters logs the manifest entries the bind-setter convention dropped
func (m *PreparedStatementModifier) skipNonSetters(kept []models.TargetMethodSignature) {
	keptNames := make(map[string]bool, len(kept))
	for _, sig := range kept {
		keptNames[sig.String()] = true
	}
	for _, sig := range m.manifest {
		if !keptNames[sig.String()] && !m.exclusions.Contains(sig.Name) {
			m.skipped(sig.String(), "not a bind setter")
		}
	}
}

// bindClear empties the bind values after a successful clear call
func (m *PreparedStatementModifier) bindClear(class *instrument.InstrumentClass) error {
	if m.exclusions.Contains(m.clearMethod) {
		m.skipped(m.clearMethod, "excluded")
		return nil
	}
	_, err := class.AddInterceptor(m.clearMethod, nil, BindClearRef)
	return m.recoverable(m.clearMethod, err)
}

// recoverable logs and swallows not-found failures
func (m *PreparedStatementModifier) recoverable(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsNotFound(err) {
		m.skipped(method, "not found")
		return nil
	}
	return err
}

func (m *PreparedStatementModifier) skipped(method, reason string) {
	m.logger.Debug("binding skipped",
		zap.String("type", m.targetType),
		zap.String("method", method),
		zap.String("reason", reason))
}
