package database

import (
	"context"
	"net/url"
	"testing"

	"github.com/icinga/dbfacade/logging"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name   string
	dbType string
}

func (f *fakeBackend) Name() string                      { return f.name }
func (f *fakeBackend) DBType() string                     { return f.dbType }
func (f *fakeBackend) ConvertSQL(query string) string     { return query }
func (f *fakeBackend) Connect(context.Context) error      { return nil }
func (f *fakeBackend) Disconnect(context.Context) error   { return nil }
func (f *fakeBackend) Acquire(context.Context) (Connection, error) {
	return nil, nil
}
func (f *fakeBackend) Release(context.Context, Connection) error { return nil }

func TestLookupBackend(t *testing.T) {
	saved := backendRegistry
	defer func() { backendRegistry = saved }()
	backendRegistry = nil

	RegisterBackend("sqlite", "sqlite", func(*url.URL, map[string]string, bool, *logging.Logger) (Backend, error) {
		return &fakeBackend{name: "sqlite", dbType: "sqlite"}, nil
	})
	RegisterBackend("pgx", "postgresql", func(*url.URL, map[string]string, bool, *logging.Logger) (Backend, error) {
		return &fakeBackend{name: "pgx", dbType: "postgresql"}, nil
	})

	t.Run("direct name match", func(t *testing.T) {
		factory, ok := lookupBackend("sqlite")
		require.True(t, ok)
		b, err := factory(nil, nil, false, nil)
		require.NoError(t, err)
		require.Equal(t, "sqlite", b.Name())
	})

	t.Run("dbType match", func(t *testing.T) {
		factory, ok := lookupBackend("postgresql")
		require.True(t, ok)
		b, err := factory(nil, nil, false, nil)
		require.NoError(t, err)
		require.Equal(t, "pgx", b.Name())
	})

	t.Run("shortcut alias", func(t *testing.T) {
		factory, ok := lookupBackend("postgres")
		require.True(t, ok)
		b, err := factory(nil, nil, false, nil)
		require.NoError(t, err)
		require.Equal(t, "pgx", b.Name())
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, ok := lookupBackend("nope")
		require.False(t, ok)
	})
}
