// Package pgxbackend registers a "pgx" backend on top of github.com/jackc/pgx/v5 and its pgxpool,
// the pooled PostgreSQL counterpart to pgbackend's direct lib/pq adapter. Unlike the database/sql
// backends it does not go through sqladapter: pgx has its own connection and transaction primitives,
// and exposes the raw command-tag string ParsePgStatus was written for, instead of masking it behind
// sql.Result the way database/sql drivers do.
package pgxbackend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/icinga/dbfacade/database"
	"github.com/icinga/dbfacade/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

func init() {
	database.RegisterBackend("pgx", "postgresql", New)
}

// New builds a pooled PostgreSQL Backend. Recognized options:
//
//   - json: when "false", json/jsonb columns are left as raw bytes instead of being decoded into
//     native Go values (the pgx default for an `any` scan target); any other value, or the option's
//     absence, keeps the default decoding behavior.
//   - maxconns, minconns: pool bounds, forwarded into pgxpool.Config (as pool_max_conns/pool_min_conns).
//
// Everything else is appended to the DSN's query string and handed to pgx's own config parser.
func New(parsed *url.URL, options map[string]string, convertParams bool, logger *logging.Logger) (database.Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	dsn := *parsed
	dsn.Scheme = "postgres"

	q := dsn.Query()
	decodeJSON := true
	for k, v := range options {
		if k == "json" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, database.NewConfigError(err)
			}
			decodeJSON = b
			continue
		}
		switch k {
		case "maxconns":
			k = "pool_max_conns"
		case "minconns":
			k = "pool_min_conns"
		}
		q.Set(k, v)
	}
	dsn.RawQuery = q.Encode()

	cfg, err := pgxpool.ParseConfig(dsn.String())
	if err != nil {
		return nil, database.NewConfigError(err)
	}

	if !decodeJSON {
		cfg.ConnConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			rawCodec := pgtype.BinaryCodec{}
			conn.TypeMap().RegisterType(&pgtype.Type{Name: "json", OID: pgtype.JSONOID, Codec: rawCodec})
			conn.TypeMap().RegisterType(&pgtype.Type{Name: "jsonb", OID: pgtype.JSONBOID, Codec: rawCodec})
			return nil
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, database.NewConnectError(err)
	}

	return &backend{pool: pool, convertParams: convertParams, logger: logger}, nil
}

type backend struct {
	pool          *pgxpool.Pool
	convertParams bool
	logger        *logging.Logger
}

func (b *backend) Name() string   { return "pgx" }
func (b *backend) DBType() string { return "postgresql" }

func (b *backend) ConvertSQL(query string) string {
	if !b.convertParams {
		return query
	}
	return database.RewritePlaceholders(query, database.PlaceholderDollar)
}

func (b *backend) Connect(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return database.NewConnectError(err)
	}
	return nil
}

func (b *backend) Disconnect(context.Context) error {
	b.pool.Close()
	return nil
}

func (b *backend) Acquire(ctx context.Context) (database.Connection, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, database.NewConnectError(err)
	}
	return &pgxConn{conn: conn}, nil
}

func (b *backend) Release(_ context.Context, c database.Connection) error {
	pc, ok := c.(*pgxConn)
	if !ok {
		return nil
	}
	pc.conn.Release()
	return nil
}

// pgxConn implements database.Connection directly over a pooled *pgxpool.Conn, without the
// database/sql layer sqladapter wraps.
type pgxConn struct {
	conn *pgxpool.Conn
}

func argsOf(params []any) []any {
	if params == nil {
		return nil
	}
	return params
}

func (c *pgxConn) Execute(ctx context.Context, query string, params []any) (database.ExecResult, error) {
	tag, err := c.conn.Exec(ctx, query, argsOf(params)...)
	if err != nil {
		return database.ExecResult{}, database.NewDriverError(err)
	}
	return resultFromTag(tag), nil
}

func (c *pgxConn) ExecuteMany(ctx context.Context, query string, paramSets [][]any) (database.ExecResult, error) {
	batch := &pgx.Batch{}
	for _, params := range paramSets {
		batch.Queue(query, argsOf(params)...)
	}

	br := c.conn.SendBatch(ctx, batch)
	defer br.Close()

	var total database.ExecResult
	for range paramSets {
		tag, err := br.Exec()
		if err != nil {
			return database.ExecResult{}, database.NewDriverError(err)
		}
		r := resultFromTag(tag)
		total.Affected += r.Affected
		total.LastInsertID = r.LastInsertID
	}

	return total, nil
}

func resultFromTag(tag pgconn.CommandTag) database.ExecResult {
	if affected, lastID, ok := database.ParsePgStatus(tag.String()); ok {
		result := database.ExecResult{Affected: affected}
		if lastID != nil {
			result.LastInsertID = *lastID
		}
		return result
	}

	return database.ExecResult{Affected: tag.RowsAffected()}
}

func (c *pgxConn) FetchAll(ctx context.Context, query string, params []any) ([]database.Row, error) {
	rows, err := c.conn.Query(ctx, query, argsOf(params)...)
	if err != nil {
		return nil, database.NewDriverError(err)
	}
	defer rows.Close()

	var result []database.Row
	names := columnNames(rows.FieldDescriptions())

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, database.NewDriverError(err)
		}
		result = append(result, database.NewRow(names, values))
	}

	return result, rows.Err()
}

func (c *pgxConn) FetchMany(ctx context.Context, size int, query string, params []any) ([]database.Row, error) {
	all, err := c.FetchAll(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if size >= 0 && size < len(all) {
		return all[:size], nil
	}
	return all, nil
}

func (c *pgxConn) FetchOne(ctx context.Context, query string, params []any) (database.Row, bool, error) {
	rows, err := c.conn.Query(ctx, query, argsOf(params)...)
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}
	defer rows.Close()

	names := columnNames(rows.FieldDescriptions())

	if !rows.Next() {
		return database.Row{}, false, rows.Err()
	}

	values, err := rows.Values()
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}

	return database.NewRow(names, values), true, nil
}

func (c *pgxConn) FetchVal(ctx context.Context, column any, query string, params []any) (any, error) {
	row, ok, err := c.FetchOne(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	switch col := column.(type) {
	case string:
		v, _ := row.Get(col)
		return v, nil
	case int:
		return row.At(col), nil
	default:
		return row.At(0), nil
	}
}

func (c *pgxConn) Iterate(ctx context.Context, query string, params []any) (database.RowIterator, error) {
	rows, err := c.conn.Query(ctx, query, argsOf(params)...)
	if err != nil {
		return nil, database.NewDriverError(err)
	}

	return &pgxIterator{rows: rows, names: columnNames(rows.FieldDescriptions())}, nil
}

func columnNames(fields []pgconn.FieldDescription) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

type pgxIterator struct {
	rows  pgx.Rows
	names []string
}

func (it *pgxIterator) Next(context.Context) (database.Row, bool, error) {
	if !it.rows.Next() {
		return database.Row{}, false, it.rows.Err()
	}

	values, err := it.rows.Values()
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}

	return database.NewRow(it.names, values), true, nil
}

func (it *pgxIterator) Close() error {
	it.rows.Close()
	return nil
}

// NewTransaction returns a native pgx transaction. silent is honored by pgxTx.Commit/Rollback
// mirroring database.Transaction's detached-connection contract.
func (c *pgxConn) NewTransaction(silent bool) database.NativeTx {
	return &pgxTx{conn: c.conn, silent: silent}
}

type pgxTx struct {
	conn   *pgxpool.Conn
	tx     pgx.Tx
	silent bool
}

func (t *pgxTx) Start(ctx context.Context) error {
	tx, err := t.conn.Begin(ctx)
	if err != nil {
		return database.NewDriverError(err)
	}
	t.tx = tx
	return nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	if t.tx == nil {
		if t.silent {
			return nil
		}
		return database.NewStateError(database.ErrNoActiveTransaction)
	}
	if err := t.tx.Commit(ctx); err != nil {
		return database.NewDriverError(err)
	}
	return nil
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	if t.tx == nil {
		if t.silent {
			return nil
		}
		return database.NewStateError(database.ErrNoActiveTransaction)
	}
	if err := t.tx.Rollback(ctx); err != nil {
		return database.NewDriverError(err)
	}
	return nil
}
