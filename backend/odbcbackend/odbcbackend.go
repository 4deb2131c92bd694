// Package odbcbackend registers an "odbc" backend on top of github.com/alexbrainman/odbc, for
// drivers (MS SQL Server, DB2, and others) reachable only through an ODBC driver manager. Like
// sqlitebackend and pgbackend it is direct: no pool, every acquire dials a fresh connection.
package odbcbackend

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/sqladapter"
	_ "github.com/alexbrainman/odbc"
)

func init() {
	database.RegisterBackend("odbc", "odbc", New)
}

// New builds an ODBC Backend. The connection string is built from parsed.Opaque/Host/Path plus
// options, joined as "key=value;" pairs the way ODBC driver managers expect.
//
// Recognized options:
//
//   - db_type: overrides the reported database type used for dialect dispatch (placeholder style,
//     status parsing), since a bare "odbc" scheme doesn't say whether the far end is SQL Server,
//     DB2, or something else.
func New(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (database.Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	dbType := options["db_type"]
	if dbType == "" {
		dbType = "odbc"
	}

	return &backend{
		dsn:           connString(parsed, options),
		dbType:        dbType,
		convertParams: convertParams,
		logger:        logger,
	}, nil
}

func connString(parsed *url.URL, options map[string]string) string {
	var b strings.Builder

	if parsed != nil {
		if parsed.Opaque != "" {
			b.WriteString(parsed.Opaque)
		} else {
			if host := parsed.Host; host != "" {
				b.WriteString("SERVER=")
				b.WriteString(host)
				b.WriteString(";")
			}
			if db := strings.TrimPrefix(parsed.Path, "/"); db != "" {
				b.WriteString("DATABASE=")
				b.WriteString(db)
				b.WriteString(";")
			}
			if parsed.User != nil {
				b.WriteString("UID=")
				b.WriteString(parsed.User.Username())
				b.WriteString(";")
				if pass, ok := parsed.User.Password(); ok {
					b.WriteString("PWD=")
					b.WriteString(pass)
					b.WriteString(";")
				}
			}
		}
	}

	for k, v := range options {
		if k == "db_type" {
			continue
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
		b.WriteString(";")
	}

	return b.String()
}

type backend struct {
	dsn           string
	dbType        string
	convertParams bool
	logger        *logging.Logger
}

func (b *backend) Name() string   { return "odbc" }
func (b *backend) DBType() string { return b.dbType }

func (b *backend) ConvertSQL(query string) string {
	if !b.convertParams {
		return query
	}
	return database.RewritePlaceholders(query, database.PlaceholderQuestion)
}

// Connect is a no-op: this adapter is direct, there is no pool to open ahead of time.
func (b *backend) Connect(context.Context) error { return nil }

// Disconnect is a no-op, symmetric with Connect.
func (b *backend) Disconnect(context.Context) error { return nil }

func (b *backend) Acquire(ctx context.Context) (database.Connection, error) {
	db, err := sql.Open("odbc", b.dsn)
	if err != nil {
		return nil, database.NewConnectError(err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, database.NewConnectError(err)
	}

	return &odbcConn{Conn: sqladapter.NewConn(conn, sqladapter.DefaultResultParser), db: db, raw: conn}, nil
}

func (b *backend) Release(_ context.Context, c database.Connection) error {
	oc, ok := c.(*odbcConn)
	if !ok {
		return nil
	}

	oc.raw.Close()
	return oc.db.Close()
}

type odbcConn struct {
	*sqladapter.Conn
	db  *sql.DB
	raw *sql.Conn
}
