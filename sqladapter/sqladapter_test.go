package sqladapter_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/icinga/dbfacade/sqladapter"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openConn(t *testing.T) *sql.Conn {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestConn_ExecuteAndFetch(t *testing.T) {
	ctx := context.Background()
	conn := sqladapter.NewConn(openConn(t), nil)

	_, err := conn.Execute(ctx, "create table u(id integer primary key, name text)", nil)
	require.NoError(t, err)

	res, err := conn.Execute(ctx, "insert into u(name) values(?)", []any{"Jim"})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Affected)

	rows, err := conn.FetchAll(ctx, "select id, name from u", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Jim", rows[0].Values()[1])
}

func TestConn_FetchOneAndVal(t *testing.T) {
	ctx := context.Background()
	conn := sqladapter.NewConn(openConn(t), nil)

	val, err := conn.FetchVal(ctx, 0, "select 2 + ?", []any{2})
	require.NoError(t, err)
	require.EqualValues(t, 4, val)

	_, ok, err := conn.FetchOne(ctx, "select 1 where 1 = 0", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConn_TransactionBeginCommit(t *testing.T) {
	ctx := context.Background()
	conn := sqladapter.NewConn(openConn(t), nil)

	_, err := conn.Execute(ctx, "create table u(id integer primary key, name text)", nil)
	require.NoError(t, err)

	tx := conn.NewTransaction(false)
	require.NoError(t, tx.Start(ctx))

	_, err = conn.Execute(ctx, "insert into u(name) values(?)", []any{"Tom"})
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(ctx))

	rows, err := conn.FetchAll(ctx, "select * from u", nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestConn_Iterate(t *testing.T) {
	ctx := context.Background()
	conn := sqladapter.NewConn(openConn(t), nil)

	_, err := conn.Execute(ctx, "create table u(id integer primary key)", nil)
	require.NoError(t, err)
	_, err = conn.Execute(ctx, "insert into u(id) values(1),(2),(3)", nil)
	require.NoError(t, err)

	it, err := conn.Iterate(ctx, "select id from u order by id", nil)
	require.NoError(t, err)
	defer it.Close()

	var ids []int64
	for {
		row, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, row.At(0).(int64))
	}

	require.Equal(t, []int64{1, 2, 3}, ids)
}
