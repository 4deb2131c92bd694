package dummybackend_test

import (
	"context"
	"testing"

	_ "github.com/icinga/dbfacade/backend/dummybackend"
	"github.com/icinga/dbfacade/database"
	"github.com/stretchr/testify/require"
)

func TestDummyBackend_RoundTrip(t *testing.T) {
	db, err := database.NewDatabase("dummy://ignored")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Connect(ctx))
	defer db.Disconnect(ctx)

	res, err := db.Execute(ctx, "anything")
	require.NoError(t, err)
	require.Zero(t, res.Affected)

	rows, err := db.FetchAll(ctx, "anything")
	require.NoError(t, err)
	require.Empty(t, rows)

	_, ok, err := db.FetchOne(ctx, "anything")
	require.NoError(t, err)
	require.False(t, ok)
}
