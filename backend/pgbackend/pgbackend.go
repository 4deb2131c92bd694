// Package pgbackend registers a "pq" backend on top of github.com/lib/pq, wire-level PostgreSQL
// without a pool: every acquire opens a fresh physical connection, the direct counterpart to
// pgxbackend's pooled adapter. Scheme "pq" is used rather than "postgresql" so both can be registered
// without colliding; callers needing the pooled adapter use scheme "pgx" or "postgresql+pool", since a
// bare "postgresql" resolves to whichever of the two backends registered first.
package pgbackend

import (
	"context"
	"database/sql"
	"net/url"

	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/sqladapter"
	_ "github.com/lib/pq"
)

func init() {
	database.RegisterBackend("pq", "postgresql", New)
}

// New builds a direct PostgreSQL Backend. The connection string is rendered from parsed verbatim
// (lib/pq accepts a "postgres://..." URL directly); options are appended as URL query parameters.
func New(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (database.Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	dsn := *parsed
	q := dsn.Query()
	for k, v := range options {
		q.Set(k, v)
	}
	dsn.RawQuery = q.Encode()

	return &backend{dsn: dsn.String(), convertParams: convertParams, logger: logger}, nil
}

type backend struct {
	dsn           string
	convertParams bool
	logger        *logging.Logger
}

func (b *backend) Name() string   { return "pq" }
func (b *backend) DBType() string { return "postgresql" }

func (b *backend) ConvertSQL(query string) string {
	if !b.convertParams {
		return query
	}
	return database.RewritePlaceholders(query, database.PlaceholderDollar)
}

// Connect is a no-op: this adapter is direct, there is no pool to open ahead of time.
func (b *backend) Connect(context.Context) error { return nil }

// Disconnect is a no-op, symmetric with Connect.
func (b *backend) Disconnect(context.Context) error { return nil }

func (b *backend) Acquire(ctx context.Context) (database.Connection, error) {
	db, err := sql.Open("postgres", b.dsn)
	if err != nil {
		return nil, database.NewConnectError(err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, database.NewConnectError(err)
	}

	return &pgConn{Conn: sqladapter.NewConn(conn, sqladapter.DefaultResultParser), db: db, raw: conn}, nil
}

func (b *backend) Release(_ context.Context, c database.Connection) error {
	pc, ok := c.(*pgConn)
	if !ok {
		return nil
	}

	pc.raw.Close()
	return pc.db.Close()
}

type pgConn struct {
	*sqladapter.Conn
	db  *sql.DB
	raw *sql.Conn
}
