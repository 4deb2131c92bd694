package database

import (
	"net/url"
	"testing"

	"github.com/icinga/dbfacade/logging"
	"github.com/stretchr/testify/require"
)

func TestClientConfig_Validate(t *testing.T) {
	withFakeBackend(t)

	t.Run("missing scheme", func(t *testing.T) {
		c := &ClientConfig{Host: "localhost"}
		require.Error(t, c.Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		c := &ClientConfig{Scheme: "fake"}
		require.Error(t, c.Validate())
	})

	t.Run("unknown scheme", func(t *testing.T) {
		c := &ClientConfig{Scheme: "nope", Host: "localhost"}
		require.Error(t, c.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		c := &ClientConfig{Scheme: "fake", Host: "localhost"}
		require.NoError(t, c.Validate())
	})
}

func TestClientConfig_URL(t *testing.T) {
	c := &ClientConfig{
		Scheme:   "postgresql",
		Host:     "localhost:5432",
		Database: "icinga",
		User:     "icinga",
		Password: "secret",
	}

	u, err := url.Parse(c.URL())
	require.NoError(t, err)
	require.Equal(t, "postgresql", u.Scheme)
	require.Equal(t, "localhost:5432", u.Host)
	require.Equal(t, "/icinga", u.Path)
	require.Equal(t, "icinga", u.User.Username())
	pass, ok := u.User.Password()
	require.True(t, ok)
	require.Equal(t, "secret", pass)
}

func TestClientConfig_NewDatabase(t *testing.T) {
	withFakeBackend(t)

	c := &ClientConfig{
		Scheme:   "fake",
		Host:     "localhost",
		Options:  map[string]string{"foo": "bar"},
		ConvertParams: true,
	}

	db, err := c.NewDatabase(WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	require.NotNil(t, db)
}
