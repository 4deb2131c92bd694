package sqlitebackend_test

import (
	"context"
	"testing"

	_ "github.com/icinga/dbfacade/backend/sqlitebackend"
	"github.com/icinga/dbfacade/database"
	"github.com/stretchr/testify/require"
)

func newMemDB(t *testing.T) *database.Database {
	t.Helper()
	return database.GetTestDatabase(t, "sqlite://:memory:", database.WithConvertParams(true))
}

// Scenario A: scalar echo with "%s" placeholder conversion.
func TestSqlite_ScalarEcho(t *testing.T) {
	db := newMemDB(t)
	ctx := context.Background()

	val, err := db.FetchVal(ctx, 0, "select 2 + %s", 2)
	require.NoError(t, err)
	require.EqualValues(t, 4, val)
}

// Scenario B: nested SAVEPOINT rollback.
func TestSqlite_NestedSavepointRollback(t *testing.T) {
	db := newMemDB(t)

	// Every acquire opens a fresh in-memory database, so the whole scenario runs on one Session.
	scope, err := db.Connection(context.Background())
	require.NoError(t, err)
	defer scope.Close(scope.Context())
	ctx := scope.Context()

	_, err = db.Execute(ctx, "create table u(id integer primary key, name text, fullname text)")
	require.NoError(t, err)

	t1, err := db.Transaction(ctx, false, false)
	require.NoError(t, err)

	_, err = db.Execute(t1.Context(), "insert into u(name, fullname) values(%s, %s)", "Jim", "Jim Jones")
	require.NoError(t, err)

	t2, err := db.Transaction(t1.Context(), false, false)
	require.NoError(t, err)
	require.True(t, t2.Transaction().IsNested())

	_, err = db.Execute(t2.Context(), "insert into u(name, fullname) values(%s, %s)", "Tom", "Tom Smith")
	require.NoError(t, err)

	rows, err := db.FetchAll(t2.Context(), "select * from u")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, errRollback, t2.Close(t2.Context(), errRollback))

	rows, err = db.FetchAll(t1.Context(), "select * from u")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	name, _ := rows[0].Get("name")
	require.Equal(t, "Jim", name)

	require.NoError(t, t1.Close(t1.Context(), nil))
}

var errRollback = database.NewDriverError(errTest{})

type errTest struct{}

func (errTest) Error() string { return "forced rollback" }
