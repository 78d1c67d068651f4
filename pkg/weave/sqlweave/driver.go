// Package sqlweave composes the weave interceptors around any
// database/sql/driver implementation. Statements prepared through a wrapped
// driver carry the connection URL, the SQL text and the bound values, and
// every execution is captured by the query capture interceptor.
package sqlweave

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"go.uber.org/zap"

	"github.com/toyz/dbweave/pkg/weave"
)

// TypeName labels operations captured through this package
const TypeName = "database/sql/driver.Stmt"

const (
	captureID = iota
	bindID
)

// Option configures a wrapped driver
type Option func(*options)

type options struct {
	recorder weave.Recorder
	logger   *zap.Logger
	sink     chan<- error
}

// WithRecorder sends captured operations to r
func WithRecorder(r weave.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger logs interceptor failures to logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithErrorSink reports interceptor failures to sink without blocking
func WithErrorSink(sink chan<- error) Option {
	return func(o *options) { o.sink = sink }
}

func newTable(opts []Option) *weave.Table {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var captureOpts []weave.CaptureOption
	if o.recorder != nil {
		captureOpts = append(captureOpts, weave.WithRecorder(o.recorder))
	}

	table := weave.NewTable(TypeName,
		weave.NewQueryCaptureInterceptor(captureOpts...),
		weave.NewBindVariableInterceptor(),
	).WithLogger(o.logger)
	if o.sink != nil {
		table = table.WithErrorSink(o.sink)
	}
	return table
}

// Register wraps d and registers it with database/sql under name
func Register(name string, d driver.Driver, opts ...Option) {
	sql.Register(name, Wrap(d, opts...))
}

// Wrap returns a driver whose statements are traced
func Wrap(d driver.Driver, opts ...Option) driver.Driver {
	return &tracedDriver{parent: d, table: newTable(opts)}
}

// OpenDB opens a traced database handle without global registration
func OpenDB(d driver.Driver, dsn string, opts ...Option) *sql.DB {
	return sql.OpenDB(&connector{driver: &tracedDriver{parent: d, table: newTable(opts)}, dsn: dsn})
}

type tracedDriver struct {
	parent driver.Driver
	table  *weave.Table
}

func (d *tracedDriver) Open(dsn string) (driver.Conn, error) {
	conn, err := d.parent.Open(dsn)
	if err != nil {
		return nil, err
	}
	return &tracedConn{parent: conn, dsn: dsn, table: d.table}, nil
}

type connector struct {
	driver *tracedDriver
	dsn    string
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}
