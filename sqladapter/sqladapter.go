// Package sqladapter provides a database.Connection implementation shared by every backend built on
// Go's database/sql (SQLite, direct PostgreSQL, MySQL, ODBC): cursor.execute/fetchall/fetchmany/
// fetchone/iterate translated to *sql.Conn calls, and transactions synthesized as BEGIN/COMMIT/
// ROLLBACK text run through that same connection, so every statement a Session issues - including the
// SAVEPOINT statements Transaction synthesizes - stays serialized on one physical connection.
//
// This is the concrete shape of spec.md §9's "driver pluralism" note: adapters share the cursor.execute
// → fetch → wrap Row → release code; only acquiring the raw connection, result parsing and placeholder
// conversion differ, and those are left to each backend package via ResultParser and its own
// database.Backend.ConvertSQL.
package sqladapter

import (
	"context"
	"database/sql"

	"github.com/icinga/dbfacade/database"
)

// ResultParser extracts a database.ExecResult from a sql.Result. Backends differ in what they can
// recover this way: SQLite and MySQL support LastInsertId(); PostgreSQL's database/sql drivers do
// not, so a PostgreSQL ResultParser reports only RowsAffected.
type ResultParser func(sql.Result) (database.ExecResult, error)

// DefaultResultParser reports RowsAffected and LastInsertId, treating a LastInsertId error (as
// returned by drivers that don't support it, e.g. lib/pq) as "none" rather than a failure.
func DefaultResultParser(res sql.Result) (database.ExecResult, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return database.ExecResult{}, err
	}

	result := database.ExecResult{Affected: affected}

	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}

	return result, nil
}

// Conn adapts a *sql.Conn to database.Connection.
type Conn struct {
	conn        *sql.Conn
	parseResult ResultParser
}

// NewConn wraps conn, using parseResult (DefaultResultParser if nil) to interpret Execute results.
func NewConn(conn *sql.Conn, parseResult ResultParser) *Conn {
	if parseResult == nil {
		parseResult = DefaultResultParser
	}

	return &Conn{conn: conn, parseResult: parseResult}
}

func (c *Conn) Execute(ctx context.Context, query string, params []any) (database.ExecResult, error) {
	res, err := c.conn.ExecContext(ctx, query, params...)
	if err != nil {
		return database.ExecResult{}, database.NewDriverError(err)
	}

	result, err := c.parseResult(res)
	if err != nil {
		return database.ExecResult{}, database.NewDriverError(err)
	}

	return result, nil
}

func (c *Conn) ExecuteMany(ctx context.Context, query string, paramSets [][]any) (database.ExecResult, error) {
	var total database.ExecResult

	for _, params := range paramSets {
		res, err := c.Execute(ctx, query, params)
		if err != nil {
			return database.ExecResult{}, err
		}

		total.Affected += res.Affected
		total.LastInsertID = res.LastInsertID
	}

	return total, nil
}

func (c *Conn) FetchAll(ctx context.Context, query string, params []any) ([]database.Row, error) {
	rows, err := c.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, database.NewDriverError(err)
	}
	defer rows.Close()

	var result []database.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, database.NewDriverError(err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, database.NewDriverError(err)
	}

	return result, nil
}

func (c *Conn) FetchMany(ctx context.Context, size int, query string, params []any) ([]database.Row, error) {
	rows, err := c.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, database.NewDriverError(err)
	}
	defer rows.Close()

	var result []database.Row
	for len(result) < size && rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, database.NewDriverError(err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, database.NewDriverError(err)
	}

	return result, nil
}

func (c *Conn) FetchOne(ctx context.Context, query string, params []any) (database.Row, bool, error) {
	rows, err := c.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return database.Row{}, false, database.NewDriverError(err)
		}
		return database.Row{}, false, nil
	}

	row, err := scanRow(rows)
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}

	return row, true, nil
}

func (c *Conn) FetchVal(ctx context.Context, column any, query string, params []any) (any, error) {
	row, ok, err := c.FetchOne(ctx, query, params)
	if err != nil || !ok {
		return nil, err
	}

	switch col := column.(type) {
	case int:
		return row.At(col), nil
	case string:
		val, _ := row.Get(col)
		return val, nil
	default:
		return row.At(0), nil
	}
}

func (c *Conn) Iterate(ctx context.Context, query string, params []any) (database.RowIterator, error) {
	rows, err := c.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, database.NewDriverError(err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, database.NewDriverError(err)
	}

	return &rowIterator{rows: rows, cols: cols}, nil
}

// NewTransaction returns a Transaction whose start/commit/rollback are BEGIN/COMMIT/ROLLBACK
// statements run through this same connection, rather than a separate *sql.Tx handle - a *sql.Tx
// would siphon off every subsequent statement sent to a *sql.Conn, including the SAVEPOINT statements
// nested transactions issue, breaking the single-connection model Session relies on.
func (c *Conn) NewTransaction(silent bool) database.NativeTx {
	return &sqlTextTx{conn: c.conn}
}

func scanRow(rows *sql.Rows) (database.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return database.Row{}, err
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return database.Row{}, err
	}

	return database.NewRow(cols, values), nil
}

type rowIterator struct {
	rows *sql.Rows
	cols []string
}

func (it *rowIterator) Next(context.Context) (database.Row, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return database.Row{}, false, database.NewDriverError(err)
		}
		return database.Row{}, false, nil
	}

	row, err := scanRow(it.rows)
	if err != nil {
		return database.Row{}, false, database.NewDriverError(err)
	}

	return row, true, nil
}

func (it *rowIterator) Close() error {
	return it.rows.Close()
}

type sqlTextTx struct {
	conn *sql.Conn
}

func (t *sqlTextTx) Start(ctx context.Context) error {
	_, err := t.conn.ExecContext(ctx, "BEGIN")
	if err != nil {
		return database.NewDriverError(err)
	}
	return nil
}

func (t *sqlTextTx) Commit(ctx context.Context) error {
	_, err := t.conn.ExecContext(ctx, "COMMIT")
	if err != nil {
		return database.NewDriverError(err)
	}
	return nil
}

func (t *sqlTextTx) Rollback(ctx context.Context) error {
	_, err := t.conn.ExecContext(ctx, "ROLLBACK")
	if err != nil {
		return database.NewDriverError(err)
	}
	return nil
}
