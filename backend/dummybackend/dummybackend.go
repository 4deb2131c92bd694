// Package dummybackend registers a "dummy" backend that performs no I/O at all: every cursor
// operation is a no-op returning empty results. It exists for exercising the Session/Transaction/
// Database façade in tests without a real driver, the Go equivalent of the source's _dummy.py, which
// carries the same "must not be used in production" warning.
package dummybackend

import (
	"context"
	"net/url"

	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
)

func init() {
	database.RegisterBackend("dummy", "dummy", New)
}

// New builds a dummy Backend. It ignores its arguments entirely; there is no connect option it acts on.
func New(*url.URL, map[string]string, bool, *logging.Logger) (database.Backend, error) {
	return &backend{}, nil
}

type backend struct{}

func (b *backend) Name() string                        { return "dummy" }
func (b *backend) DBType() string                       { return "dummy" }
func (b *backend) ConvertSQL(query string) string       { return query }
func (b *backend) Connect(context.Context) error        { return nil }
func (b *backend) Disconnect(context.Context) error     { return nil }
func (b *backend) Acquire(context.Context) (database.Connection, error) {
	return &conn{}, nil
}
func (b *backend) Release(context.Context, database.Connection) error { return nil }

type conn struct{}

func (c *conn) Execute(context.Context, string, []any) (database.ExecResult, error) {
	return database.ExecResult{}, nil
}

func (c *conn) ExecuteMany(context.Context, string, [][]any) (database.ExecResult, error) {
	return database.ExecResult{}, nil
}

func (c *conn) FetchAll(context.Context, string, []any) ([]database.Row, error) {
	return nil, nil
}

func (c *conn) FetchMany(context.Context, int, string, []any) ([]database.Row, error) {
	return nil, nil
}

func (c *conn) FetchOne(context.Context, string, []any) (database.Row, bool, error) {
	return database.Row{}, false, nil
}

func (c *conn) FetchVal(context.Context, any, string, []any) (any, error) {
	return nil, nil
}

func (c *conn) Iterate(context.Context, string, []any) (database.RowIterator, error) {
	return &iterator{}, nil
}

func (c *conn) NewTransaction(bool) database.NativeTx {
	return &tx{}
}

type iterator struct{}

func (i *iterator) Next(context.Context) (database.Row, bool, error) {
	return database.Row{}, false, nil
}

func (i *iterator) Close() error { return nil }

type tx struct{}

func (t *tx) Start(context.Context) error    { return nil }
func (t *tx) Commit(context.Context) error   { return nil }
func (t *tx) Rollback(context.Context) error { return nil }
