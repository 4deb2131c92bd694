// Package mysqlbackend registers a "mysql" backend on top of github.com/go-sql-driver/mysql. It is
// pooled: New opens a *sql.DB backed by a driver.Connector wrapped in the teacher's RetryConnector
// (adapted database.RetryConnector), and acquire/release borrow/return a *sql.Conn from that pool,
// the Go equivalent of the source's aiomysql backend sharing one pool across acquisitions.
package mysqlbackend

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/sqladapter"
	"github.com/pkg/errors"
)

func init() {
	database.RegisterBackend("mysql", "mysql", New)
}

// ER_UNKNOWN_SYSTEM_VARIABLE is the MySQL error number returned when SETting a session variable the
// server doesn't recognize (e.g. a Galera-only variable like wsrep_sync_wait against plain MySQL).
const erUnknownSystemVariable = 1193

// New builds a pooled MySQL Backend. Recognized options:
//
//   - autocommit, charset, use_unicode: forwarded into mysql.Config.Params.
//   - minsize, maxsize: pool bounds, applied via SetMaxIdleConns/SetMaxOpenConns.
//   - init_statement: a SQL statement run on every newly dialed connection via the same
//     "unsafe-set-if-exists" contract as the teacher's unsafeSetSessionVariableIfExists: an
//     ER_UNKNOWN_SYSTEM_VARIABLE error is treated as success instead of failing the dial.
func New(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (database.Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = parsed.Host
	cfg.DBName = strings.TrimPrefix(parsed.Path, "/")
	cfg.Params = make(map[string]string)

	if parsed.User != nil {
		cfg.User = parsed.User.Username()
		cfg.Passwd, _ = parsed.User.Password()
	}

	for _, key := range []string{"charset", "use_unicode"} {
		if v, ok := options[key]; ok {
			cfg.Params[key] = v
		}
	}

	if v, ok := options["autocommit"]; ok {
		if _, err := strconv.ParseBool(v); err != nil {
			return nil, database.NewConfigError(errors.Wrap(err, "autocommit"))
		}
		cfg.Params["autocommit"] = v
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, database.NewConfigError(err)
	}

	wrapped := database.NewRetryConnector(&initHookConnector{
		Connector: connector,
		statement: options["init_statement"],
	}, logger, 0)

	db := sql.OpenDB(wrapped)

	if v, ok := options["maxsize"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			db.SetMaxOpenConns(n)
		}
	}
	if v, ok := options["minsize"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			db.SetMaxIdleConns(n)
		}
	}

	return &backend{db: db, convertParams: convertParams, logger: logger}, nil
}

type backend struct {
	db            *sql.DB
	convertParams bool
	logger        *logging.Logger
}

func (b *backend) Name() string   { return "mysql" }
func (b *backend) DBType() string { return "mysql" }

func (b *backend) ConvertSQL(query string) string {
	if !b.convertParams {
		return query
	}
	return database.RewritePlaceholders(query, database.PlaceholderQuestion)
}

// Connect opens the pool: go-sql-driver's *sql.DB dials lazily, so this only verifies reachability.
func (b *backend) Connect(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return database.NewConnectError(err)
	}
	return nil
}

func (b *backend) Disconnect(context.Context) error {
	return b.db.Close()
}

func (b *backend) Acquire(ctx context.Context) (database.Connection, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, database.NewConnectError(err)
	}

	return &mysqlConn{Conn: sqladapter.NewConn(conn, sqladapter.DefaultResultParser), raw: conn}, nil
}

// Release returns the connection to the pool (*sql.Conn.Close on a pooled connection returns it
// rather than severing it).
func (b *backend) Release(_ context.Context, c database.Connection) error {
	mc, ok := c.(*mysqlConn)
	if !ok {
		return nil
	}
	return mc.raw.Close()
}

type mysqlConn struct {
	*sqladapter.Conn
	raw *sql.Conn
}

// initHookConnector runs statement (if set) against every freshly dialed connection, tolerating an
// ER_UNKNOWN_SYSTEM_VARIABLE error as success.
type initHookConnector struct {
	driver.Connector
	statement string
}

func (c *initHookConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if c.statement == "" {
		return conn, nil
	}

	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		return conn, nil
	}

	if _, err := execer.ExecContext(ctx, c.statement, nil); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == erUnknownSystemVariable {
			return conn, nil
		}

		conn.Close()
		return nil, err
	}

	return conn, nil
}
