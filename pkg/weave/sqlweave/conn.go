package sqlweave

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/toyz/dbweave/pkg/weave"
)

type tracedConn struct {
	parent driver.Conn
	dsn    string
	table  *weave.Table
}

var (
	_ driver.Conn               = (*tracedConn)(nil)
	_ driver.ConnPrepareContext = (*tracedConn)(nil)
	_ driver.ConnBeginTx        = (*tracedConn)(nil)
	_ driver.ExecerContext      = (*tracedConn)(nil)
	_ driver.QueryerContext     = (*tracedConn)(nil)
	_ driver.Pinger             = (*tracedConn)(nil)
	_ driver.SessionResetter    = (*tracedConn)(nil)
	_ driver.Validator          = (*tracedConn)(nil)
)

func (c *tracedConn) newStmt(query string, stmt driver.Stmt) *tracedStmt {
	state := weave.NewTraceState(c.dsn)
	state.SetTraceSQL(query)
	return &tracedStmt{TraceState: state, parent: stmt, table: c.table}
}

func (c *tracedConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *tracedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if preparer, ok := c.parent.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, query)
	} else {
		stmt, err = c.parent.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return c.newStmt(query, stmt), nil
}

func (c *tracedConn) Close() error {
	return c.parent.Close()
}

func (c *tracedConn) Begin() (driver.Tx, error) {
	return c.parent.Begin()
}

func (c *tracedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginner, ok := c.parent.(driver.ConnBeginTx); ok {
		return beginner.BeginTx(ctx, opts)
	}
	if opts.ReadOnly || opts.Isolation != 0 {
		return nil, errors.New("sqlweave: driver does not support transaction options")
	}
	return c.parent.Begin()
}

// ExecContext traces a direct execution through a transient statement state
func (c *tracedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.parent.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	st := c.newStmt(query, nil)
	st.bind(args)
	inv := c.table.Before(captureID, st, "Exec", query)
	result, err := execer.ExecContext(ctx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		return nil, err
	}
	inv.After(result, err)
	return result, err
}

// QueryContext traces a direct query through a transient statement state
func (c *tracedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.parent.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	st := c.newStmt(query, nil)
	st.bind(args)
	inv := c.table.Before(captureID, st, "Query", query)
	rows, err := queryer.QueryContext(ctx, query, args)
	if errors.Is(err, driver.ErrSkip) {
		return nil, err
	}
	inv.After(rows, err)
	return rows, err
}

func (c *tracedConn) Ping(ctx context.Context) error {
	if pinger, ok := c.parent.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *tracedConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.parent.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

func (c *tracedConn) IsValid() bool {
	if validator, ok := c.parent.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}
