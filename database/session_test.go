package database

import (
	"context"
	"testing"
	"time"

	"github.com/icinga/dbfacade/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSession_IterateStreamsAndCountsRows(t *testing.T) {
	sess, _ := newReadySession(t)
	ctx := context.Background()

	it, err := sess.Iterate(ctx, "select n")
	require.NoError(t, err)

	var got []int64
	for {
		row, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		v, _ := row.Get("n")
		got = append(got, v.(int64))
	}

	require.Equal(t, []int64{1, 2, 3}, got)
	require.NoError(t, it.Close())

	locked, ok := it.(*sessionLockedIterator)
	require.True(t, ok)
	require.EqualValues(t, 3, locked.rows.Val())
}

// Exercises the periodic progress-logging path wired into Iterate: with a non-zero logger interval a
// stopper is created, and closing the iterator must stop it without error.
func TestSession_IterateWithProgressLoggingInterval(t *testing.T) {
	logger := logging.NewLogger(zaptest.NewLogger(t).Sugar(), time.Millisecond)
	sess := NewSession(&fakeBackendWithConn{conn: &fakeConn{}}, logger)
	require.NoError(t, sess.Acquire(context.Background()))

	it, err := sess.Iterate(context.Background(), "select n")
	require.NoError(t, err)

	locked := it.(*sessionLockedIterator)
	require.NotNil(t, locked.stopper)

	for {
		_, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
	}

	require.NoError(t, it.Close())
}
