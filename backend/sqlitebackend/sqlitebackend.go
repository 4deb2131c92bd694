// Package sqlitebackend registers a "sqlite" backend on top of modernc.org/sqlite, a pure-Go driver
// requiring no cgo. SQLite has no concept of a server pool, so this is a direct adapter: connect/
// disconnect are no-ops and every acquire opens a fresh *sql.DB/*sql.Conn pair, grounded in the
// source's sqlite.py ("connect"/"disconnect" pass, "acquire" opens a new aiosqlite connection).
package sqlitebackend

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/sqladapter"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

func init() {
	database.RegisterBackend("sqlite", "sqlite", New)
}

// New builds a sqlite Backend from parsed/options. Recognized options:
//
//   - pragmas: semicolon-separated "key = value" pairs run as "PRAGMA key = value;" on every newly
//     acquired connection (e.g. "journal_mode = WAL; foreign_keys = ON").
//   - isolation_level: forwarded as-is into the modernc.org/sqlite DSN.
//   - functions: rejected with a ConfigError, since user-defined SQL functions require driver-level
//     registration this adapter does not support.
func New(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (database.Backend, error) {
	if _, ok := options["functions"]; ok {
		return nil, database.NewConfigError(errors.New("sqlite: user-defined SQL functions are not supported"))
	}

	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &backend{
		dsn:            dsnFromURL(parsed),
		pragmas:        parsePragmas(options["pragmas"]),
		isolationLevel: options["isolation_level"],
		convertParams:  convertParams,
		logger:         logger,
	}, nil
}

func dsnFromURL(u *url.URL) string {
	if u == nil {
		return ":memory:"
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

func parsePragmas(s string) []string {
	if s == "" {
		return nil
	}

	var pragmas []string
	for _, p := range strings.Split(s, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			pragmas = append(pragmas, p)
		}
	}

	return pragmas
}

type backend struct {
	dsn            string
	pragmas        []string
	isolationLevel string
	convertParams  bool
	logger         *logging.Logger
}

func (b *backend) Name() string   { return "sqlite" }
func (b *backend) DBType() string { return "sqlite" }

func (b *backend) ConvertSQL(query string) string {
	if !b.convertParams {
		return query
	}
	return database.RewritePlaceholders(query, database.PlaceholderQuestion)
}

// Connect is a no-op: SQLite has no server-side pool to open ahead of time.
func (b *backend) Connect(context.Context) error { return nil }

// Disconnect is a no-op, symmetric with Connect.
func (b *backend) Disconnect(context.Context) error { return nil }

func (b *backend) Acquire(ctx context.Context) (database.Connection, error) {
	dsn := b.dsn
	if b.isolationLevel != "" {
		dsn += "?_pragma=busy_timeout(5000)&_txlock=" + b.isolationLevel
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, database.NewConnectError(err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, database.NewConnectError(err)
	}

	for _, pragma := range b.pragmas {
		if _, err := conn.ExecContext(ctx, "PRAGMA "+pragma); err != nil {
			conn.Close()
			db.Close()
			return nil, database.NewConnectError(err)
		}
	}

	return &sqliteConn{
		Conn: sqladapter.NewConn(conn, nil),
		db:   db,
		raw:  conn,
	}, nil
}

func (b *backend) Release(_ context.Context, c database.Connection) error {
	sc, ok := c.(*sqliteConn)
	if !ok {
		return nil
	}

	sc.raw.Close()
	return sc.db.Close()
}

// sqliteConn adapts sqladapter.Conn to hold the *sql.DB/*sql.Conn pair a direct sqlite acquire opened, so
// Release can close both.
type sqliteConn struct {
	*sqladapter.Conn
	db  *sql.DB
	raw *sql.Conn
}
