package database

import (
	"context"
	"net/url"
	"testing"

	"github.com/icinga/dbfacade/logging"
	"github.com/stretchr/testify/require"
)

func withFakeBackend(t *testing.T) *fakeConn {
	t.Helper()

	saved := backendRegistry
	t.Cleanup(func() { backendRegistry = saved })
	backendRegistry = nil

	conn := &fakeConn{}
	RegisterBackend("fake", "fake", func(*url.URL, map[string]string, bool, *logging.Logger) (Backend, error) {
		return &fakeBackendWithConn{conn: conn}, nil
	})

	return conn
}

func TestNewDatabase_UnknownScheme(t *testing.T) {
	withFakeBackend(t)

	_, err := NewDatabase("nope://somewhere")
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDatabase_ConnectDisconnectIdempotent(t *testing.T) {
	withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Connect(ctx))
	require.NoError(t, db.Connect(ctx))
	require.NoError(t, db.Disconnect(ctx))
	require.NoError(t, db.Disconnect(ctx))
}

func TestDatabase_ConnectionScopeCreatesAndReleases(t *testing.T) {
	withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	scope, err := db.Connection(ctx)
	require.NoError(t, err)
	require.True(t, scope.Session().IsReady())

	require.NoError(t, scope.Close(scope.Context()))
	require.False(t, scope.Session().IsReady())
}

func TestDatabase_ConnectionScopeAdoptsTaskCurrent(t *testing.T) {
	withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	outer, err := db.NewConnection(ctx)
	require.NoError(t, err)
	defer outer.Close(outer.Context())

	// A top-level call inside the outer scope must observe the same Session, not acquire a new one.
	_, err = db.Execute(outer.Context(), "select 1")
	require.NoError(t, err)

	inner, err := db.Connection(outer.Context())
	require.NoError(t, err)
	require.Same(t, outer.Session(), inner.Session())

	// Adopted scopes do not release on Close.
	require.NoError(t, inner.Close(inner.Context()))
	require.True(t, outer.Session().IsReady())
}

func TestDatabase_ConnectionScopeFreshAfterExit(t *testing.T) {
	withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	outer, err := db.NewConnection(ctx)
	require.NoError(t, err)
	require.NoError(t, outer.Close(outer.Context()))

	// Outside the scope, ctx (the original, unmodified one) carries no Session: a fresh one is used.
	scope, err := db.connection(ctx, false)
	require.NoError(t, err)
	defer scope.Close(scope.Context())

	require.NotSame(t, outer.Session(), scope.Session())
}

func TestDatabase_TransactionScopeReusesSessionAndNests(t *testing.T) {
	withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	outer, err := db.Transaction(ctx, false, false)
	require.NoError(t, err)

	inner, err := db.Transaction(outer.Context(), false, false)
	require.NoError(t, err)
	require.Same(t, outer.conn.Session(), inner.conn.Session())
	require.True(t, inner.Transaction().IsNested())

	require.NoError(t, inner.Close(inner.Context(), nil))
	require.NoError(t, outer.Close(outer.Context(), nil))
}

func TestDatabase_TransactionScopeAutoRollback(t *testing.T) {
	conn := withFakeBackend(t)

	db, err := NewDatabase("fake://somewhere")
	require.NoError(t, err)

	ctx := context.Background()
	scope, err := db.Transaction(ctx, false, false)
	require.NoError(t, err)

	bodyErr := errNotFound
	err = scope.Close(scope.Context(), bodyErr)
	require.Equal(t, bodyErr, err)
	require.Equal(t, 0, scope.conn.Session().TransactionCount())
	require.Empty(t, conn.executed)
}

var errNotFound = &DriverError{cause: ErrNotReady}
