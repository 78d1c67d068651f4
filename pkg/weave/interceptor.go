// Package weave is the runtime used by generated decorators and by the
// sqlweave driver wrapper. Interceptors observe method calls on a traced
// instance through before and after hooks; hook failures are contained at
// the hook boundary and never reach the caller.
package weave

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Interceptor is anything that can be attached to a traced method
type Interceptor interface {
	Name() string
}

// BeforeHook runs before the original method executes
type BeforeHook interface {
	Before(inv *Invocation)
}

// AfterHook runs after the original method returns
type AfterHook interface {
	After(inv *Invocation)
}

// Invocation describes one call of a traced method
type Invocation struct {
	// Target is the traced instance, usually implementing the carrier interfaces
	Target any

	// Method is the name of the traced method
	Method string

	// Args are the call arguments in declaration order
	Args []any

	// Results are the returned values, set before the after hook runs
	Results []any

	// Data is private to the interceptor that handles this invocation
	Data any

	// Started is when the before hook was entered
	Started time.Time

	finished time.Time
	table    *Table
	entry    *tableEntry
}

// Err returns the trailing error result, if any
func (inv *Invocation) Err() error {
	if len(inv.Results) == 0 {
		return nil
	}
	if err, ok := inv.Results[len(inv.Results)-1].(error); ok {
		return err
	}
	return nil
}

// Elapsed returns the call duration, or the time since start while running
func (inv *Invocation) Elapsed() time.Duration {
	if inv.finished.IsZero() {
		return time.Since(inv.Started)
	}
	return inv.finished.Sub(inv.Started)
}

// After records the results and runs the after hook bound to this invocation
func (inv *Invocation) After(results ...any) {
	if inv == nil {
		return
	}
	inv.Results = results
	inv.finished = time.Now()
	if inv.entry == nil || inv.entry.after == nil {
		return
	}
	inv.table.run(inv, "after", inv.entry.after.After)
}

type tableEntry struct {
	interceptor Interceptor
	before      BeforeHook
	after       AfterHook
}

// Table maps interceptor ids to interceptor instances for one traced type.
// The position of an interceptor is its id; a table is immutable once built.
type Table struct {
	typeName string
	entries  []tableEntry
	sink     chan<- error
	logger   *zap.Logger
}

// NewTable builds the id table for typeName. Hook slots are resolved here
// so dispatch does not repeat type assertions per call.
func NewTable(typeName string, interceptors ...Interceptor) *Table {
	entries := make([]tableEntry, len(interceptors))
	for i, interceptor := range interceptors {
		if interceptor == nil {
			continue
		}
		entry := tableEntry{interceptor: interceptor}
		if before, ok := interceptor.(BeforeHook); ok {
			entry.before = before
		}
		if after, ok := interceptor.(AfterHook); ok {
			entry.after = after
		}
		entries[i] = entry
	}

	return &Table{
		typeName: typeName,
		entries:  entries,
		logger:   zap.NewNop(),
	}
}

// WithErrorSink returns a copy of the table that reports hook failures to
// sink. Sends never block; failures are dropped when the sink is full.
func (t *Table) WithErrorSink(sink chan<- error) *Table {
	clone := *t
	clone.sink = sink
	return &clone
}

// WithLogger returns a copy of the table that logs hook failures
func (t *Table) WithLogger(logger *zap.Logger) *Table {
	clone := *t
	if logger == nil {
		logger = zap.NewNop()
	}
	clone.logger = logger
	return &clone
}

// TypeName returns the traced type this table belongs to
func (t *Table) TypeName() string {
	return t.typeName
}

// Len returns the number of allocated interceptor ids
func (t *Table) Len() int {
	return len(t.entries)
}

// Interceptor returns the instance bound to id
func (t *Table) Interceptor(id int) (Interceptor, bool) {
	if id < 0 || id >= len(t.entries) || t.entries[id].interceptor == nil {
		return nil, false
	}
	return t.entries[id].interceptor, true
}

// Before starts an invocation of method on target and runs the before hook
// bound to id. The returned invocation is never nil; an unknown id yields an
// invocation whose hooks are no-ops.
func (t *Table) Before(id int, target any, method string, args ...any) *Invocation {
	inv := &Invocation{
		Target:  target,
		Method:  method,
		Args:    args,
		Started: time.Now(),
		table:   t,
	}
	if id < 0 || id >= len(t.entries) || t.entries[id].interceptor == nil {
		return inv
	}
	inv.entry = &t.entries[id]
	if inv.entry.before != nil {
		t.run(inv, "before", inv.entry.before.Before)
	}
	return inv
}

// HookError describes a recovered interceptor failure
type HookError struct {
	TypeName    string
	Method      string
	Interceptor string
	Phase       string
	Value       any
}

// Error implements the error interface
func (e *HookError) Error() string {
	return fmt.Sprintf("interceptor %s failed in %s hook of %s.%s: %v",
		e.Interceptor, e.Phase, e.TypeName, e.Method, e.Value)
}

// Unwrap returns the panic value when it was an error
func (e *HookError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (t *Table) run(inv *Invocation, phase string, hook func(*Invocation)) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(&HookError{
				TypeName:    t.typeName,
				Method:      inv.Method,
				Interceptor: inv.entry.interceptor.Name(),
				Phase:       phase,
				Value:       r,
			})
		}
	}()
	hook(inv)
}

func (t *Table) fail(err *HookError) {
	hookFailures.WithLabelValues(err.TypeName, err.Interceptor, err.Phase).Inc()
	t.logger.Warn("interceptor hook failed",
		zap.String("type", err.TypeName),
		zap.String("method", err.Method),
		zap.String("interceptor", err.Interceptor),
		zap.String("phase", err.Phase),
		zap.Any("value", err.Value),
	)
	if t.sink == nil {
		return
	}
	select {
	case t.sink <- err:
	default:
	}
}
