package sqlweave

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/toyz/dbweave/pkg/weave"
)

// tracedStmt carries the trace variables of one prepared statement
type tracedStmt struct {
	*weave.TraceState
	parent driver.Stmt
	table  *weave.Table
}

var (
	_ driver.Stmt             = (*tracedStmt)(nil)
	_ driver.StmtExecContext  = (*tracedStmt)(nil)
	_ driver.StmtQueryContext = (*tracedStmt)(nil)
	_ weave.BindValueCarrier  = (*tracedStmt)(nil)
)

// bind feeds every argument through the bind interceptor keyed by ordinal
func (s *tracedStmt) bind(args []driver.NamedValue) {
	for _, arg := range args {
		s.table.Before(bindID, s, "Bind", arg.Ordinal, arg.Value).After(nil)
	}
}

func (s *tracedStmt) Close() error {
	return s.parent.Close()
}

func (s *tracedStmt) NumInput() int {
	return s.parent.NumInput()
}

func (s *tracedStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValues(args))
}

func (s *tracedStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValues(args))
}

func (s *tracedStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.bind(args)
	inv := s.table.Before(captureID, s, "Exec", s.TraceSQL())

	var (
		result driver.Result
		err    error
	)
	if execer, ok := s.parent.(driver.StmtExecContext); ok {
		result, err = execer.ExecContext(ctx, args)
	} else {
		var values []driver.Value
		if values, err = plainValues(args); err == nil {
			result, err = s.parent.Exec(values)
		}
	}

	inv.After(result, err)
	return result, err
}

func (s *tracedStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.bind(args)
	inv := s.table.Before(captureID, s, "Query", s.TraceSQL())

	var (
		rows driver.Rows
		err  error
	)
	if queryer, ok := s.parent.(driver.StmtQueryContext); ok {
		rows, err = queryer.QueryContext(ctx, args)
	} else {
		var values []driver.Value
		if values, err = plainValues(args); err == nil {
			rows, err = s.parent.Query(values)
		}
	}

	inv.After(rows, err)
	return rows, err
}

func namedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, value := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: value}
	}
	return named
}

func plainValues(args []driver.NamedValue) ([]driver.Value, error) {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		if arg.Name != "" {
			return nil, errors.New("sqlweave: driver does not support named parameters")
		}
		values[i] = arg.Value
	}
	return values, nil
}
