package database

import (
	"context"
	"net/url"

	"github.com/icinga/dbfacade/logging"
)

// ExecResult is the outcome of Execute/ExecuteMany: the number of rows a statement affected and,
// where the driver reports one, the identifier of a row it inserted.
type ExecResult struct {
	Affected     int64
	LastInsertID any
}

// RowIterator streams rows from an Iterate call without materializing the whole result set.
type RowIterator interface {
	// Next advances the iterator. It returns false, nil once the result set is exhausted.
	Next(ctx context.Context) (Row, bool, error)
	Close() error
}

// NativeTx is a backend's native transaction primitive (e.g. a *sql.Tx or a driver-level BEGIN),
// used for a Session's outermost transaction. Nested transactions are synthesized as SAVEPOINTs by
// Transaction itself and never reach this interface.
type NativeTx interface {
	Start(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a single acquired, backend-native connection together with the cursor operations a
// Session drives through it. Implementations fold what the source splits across a raw connection
// object and a separate cursor-methods mixin into one value per backend, which is the natural shape
// for a Go driver wrapper (e.g. around *sql.Conn or a native pgx connection).
type Connection interface {
	Execute(ctx context.Context, query string, params []any) (ExecResult, error)
	ExecuteMany(ctx context.Context, query string, paramSets [][]any) (ExecResult, error)
	FetchAll(ctx context.Context, query string, params []any) ([]Row, error)
	FetchMany(ctx context.Context, size int, query string, params []any) ([]Row, error)
	FetchOne(ctx context.Context, query string, params []any) (Row, bool, error)
	FetchVal(ctx context.Context, column any, query string, params []any) (any, error)
	Iterate(ctx context.Context, query string, params []any) (RowIterator, error)

	// NewTransaction returns a fresh native transaction bound to this connection. silent governs
	// whether commit/rollback on a detached connection is a no-op rather than a StateError.
	NewTransaction(silent bool) NativeTx
}

// Backend is the per-driver adapter a Database dispatches to: it owns the pool (or bare dial config)
// and knows how to acquire/release a Connection from it.
type Backend interface {
	// Name is the backend's short registration name, e.g. "sqlite", "pq", "pgx", "mysql".
	Name() string
	// DBType is the backend's canonical database family name, used as a secondary scheme match the
	// same way the source matches db_type in addition to name (e.g. a pooled and a direct PostgreSQL
	// backend can both answer to "postgresql").
	DBType() string

	// ConvertSQL rewrites a query's placeholders into the backend's native marker style. Every backend
	// implements it itself and returns query unchanged unless the convert_params option was enabled.
	ConvertSQL(query string) string

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	Acquire(ctx context.Context) (Connection, error)
	Release(ctx context.Context, conn Connection) error
}

// BackendFactory builds a Backend from a parsed connection URL, the merged options map (query string
// parameters overridden by explicit constructor options, per the source's "dict(parse_qsl(...),
// **options)" merge order), and whether callers asked for placeholder conversion.
type BackendFactory func(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (Backend, error)

type backendRegistration struct {
	name    string
	dbType  string
	factory BackendFactory
}

var backendRegistry []backendRegistration

// schemeAliases mirrors the source's SHORTCUTS table: URL schemes accepted as synonyms for a
// registered backend name before the registry is scanned.
var schemeAliases = map[string]string{
	"postgres":    "postgresql",
	"postgressql": "postgresql",
	"sqllite":     "sqlite",
	"aiosqlite":   "sqlite",
	"aiopg":       "postgresql",
	"asyncpg":     "postgresql",
	"triopg":      "postgresql",

	// "+pool" variants route to the pgxpool/go-sql-driver-pooled adapters unambiguously, rather than
	// relying on import order to break a tie on the bare "postgresql" name (see DESIGN.md).
	"postgresql+pool": "pgx",
	"aiopg+pool":       "pgx",
	"asyncpg+pool":     "pgx",

	"aiomysql":      "mysql",
	"trio-mysql":    "mysql",
	"mysql+pool":    "mysql",
	"aiomysql+pool": "mysql",

	"aioodbc":      "odbc",
	"aioodbc+pool": "odbc",
}

// RegisterBackend adds a backend factory to the registry under name/dbType, mirroring the source's
// __init_subclass__ auto-registration. Backend packages call this from an init() function, the same
// blank-import pattern database/sql drivers use.
func RegisterBackend(name, dbType string, factory BackendFactory) {
	backendRegistry = append(backendRegistry, backendRegistration{name: name, dbType: dbType, factory: factory})
}

// lookupBackend resolves a URL scheme to a registered backend factory, applying schemeAliases first
// and then scanning the registry for a name or dbType match, in registration order.
func lookupBackend(scheme string) (BackendFactory, bool) {
	if alias, ok := schemeAliases[scheme]; ok {
		scheme = alias
	}

	for _, reg := range backendRegistry {
		if reg.name == scheme || reg.dbType == scheme {
			return reg.factory, true
		}
	}

	return nil, false
}
