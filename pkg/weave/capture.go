package weave

import (
	"github.com/google/uuid"
)

// QueryCaptureInterceptor records each statement execution. The before hook
// captures the SQL argument and opens an Operation; the after hook closes it
// and hands it to the recorder.
type QueryCaptureInterceptor struct {
	recorder Recorder
}

// CaptureOption configures a QueryCaptureInterceptor
type CaptureOption func(*QueryCaptureInterceptor)

// WithRecorder sends completed operations to r instead of DefaultRecorder
func WithRecorder(r Recorder) CaptureOption {
	return func(q *QueryCaptureInterceptor) {
		q.recorder = r
	}
}

// NewQueryCaptureInterceptor creates the interceptor bound to execute methods
func NewQueryCaptureInterceptor(opts ...CaptureOption) *QueryCaptureInterceptor {
	q := &QueryCaptureInterceptor{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name implements Interceptor
func (q *QueryCaptureInterceptor) Name() string {
	return "query-capture"
}

// Before stores a string argument as the SQL trace variable and snapshots
// the current trace state. The operation keeps the argument of this call, so
// concurrent executions on one instance never see each other's statement.
func (q *QueryCaptureInterceptor) Before(inv *Invocation) {
	sqlCarrier, hasSQL := inv.Target.(SQLCarrier)
	sql, hasArg := statementArg(inv.Args)
	if hasSQL && hasArg {
		sqlCarrier.SetTraceSQL(sql)
	}

	op := &Operation{
		ID:      uuid.New(),
		Method:  inv.Method,
		Started: inv.Started,
	}
	if inv.table != nil {
		op.TypeName = inv.table.typeName
	}
	if carrier, ok := inv.Target.(URLCarrier); ok {
		op.URL = carrier.TraceURL()
	}
	switch {
	case hasArg:
		op.SQL = sql
	case hasSQL:
		op.SQL = sqlCarrier.TraceSQL()
	}
	if carrier, ok := inv.Target.(BindValueCarrier); ok {
		if values := carrier.TraceBindValues(); values != nil {
			op.BindValues = values.Snapshot()
		}
	}
	inv.Data = op
}

func statementArg(args []any) (string, bool) {
	for _, arg := range args {
		if sql, ok := arg.(string); ok {
			return sql, true
		}
	}
	return "", false
}

// After stamps the outcome and records the operation
func (q *QueryCaptureInterceptor) After(inv *Invocation) {
	op, ok := inv.Data.(*Operation)
	if !ok {
		return
	}
	op.Duration = inv.Elapsed()
	op.Err = inv.Err()
	op.Success = op.Err == nil

	outcome := OutcomeSuccess
	if !op.Success {
		outcome = OutcomeError
	}
	operationsTotal.WithLabelValues(outcome).Inc()
	operationDuration.Observe(op.Duration.Seconds())

	recorder := q.recorder
	if recorder == nil {
		recorder = DefaultRecorder
	}
	recorder.Record(*op)
}
