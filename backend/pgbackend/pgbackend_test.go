package pgbackend_test

import (
	"net/url"
	"testing"

	"github.com/icinga/dbfacade/backend/pgbackend"
	"github.com/stretchr/testify/require"
)

func TestNew_ConvertSQL(t *testing.T) {
	u, err := url.Parse("pq://user:pass@localhost:5432/icinga")
	require.NoError(t, err)

	b, err := pgbackend.New(u, map[string]string{"sslmode": "disable"}, true, nil)
	require.NoError(t, err)

	require.Equal(t, "pq", b.Name())
	require.Equal(t, "postgresql", b.DBType())
	require.Equal(t, `select "$1", $2`, b.ConvertSQL(`select "%s", %s`))
}

func TestNew_ConvertSQLDisabled(t *testing.T) {
	u, err := url.Parse("pq://localhost/icinga")
	require.NoError(t, err)

	b, err := pgbackend.New(u, nil, false, nil)
	require.NoError(t, err)

	require.Equal(t, `select "%s", %s`, b.ConvertSQL(`select "%s", %s`))
}
