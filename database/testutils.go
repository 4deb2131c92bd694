package database

import (
	"context"
	"testing"
	"time"

	"github.com/icinga/dbfacade/logging"
	"go.uber.org/zap/zaptest"
)

// GetTestDatabase builds and connects a Database against rawURL, logging through a zaptest.Logger
// tied to t, and registers a t.Cleanup that disconnects it. Callers are responsible for blank-
// importing whichever backend package registers rawURL's scheme.
func GetTestDatabase(t testing.TB, rawURL string, opts ...Option) *Database {
	t.Helper()

	logger := logging.NewLogger(zaptest.NewLogger(t).Sugar(), time.Hour)

	all := make([]Option, 0, len(opts)+1)
	all = append(all, WithLogger(logger))
	all = append(all, opts...)

	db, err := NewDatabase(rawURL, all...)
	if err != nil {
		t.Fatalf("building test database: %v", err)
	}

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("connecting test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Disconnect(context.Background()); err != nil {
			t.Errorf("disconnecting test database: %v", err)
		}
	})

	return db
}
