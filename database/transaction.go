package database

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
)

// Transaction is a scope around a Session: its outermost instance on a given Session drives the
// backend's native transaction primitive; every instance started while one is already active
// synthesizes a SAVEPOINT instead, the Go equivalent of nested ABCTransaction scopes sharing one
// connection.
//
// The source's sqlite backend names savepoints "AIODB_SAVEPOINT_" + uuid4().hex, while its common
// default uses "AIODB__" + uuid4().hex; every backend here uses the latter, single convention.
type Transaction struct {
	session *Session
	silent  bool

	native        NativeTx
	savepointName string

	started    bool
	terminated bool
}

func newTransaction(session *Session, silent bool) *Transaction {
	return &Transaction{session: session, silent: silent}
}

// IsNested reports whether this Transaction synthesized a SAVEPOINT rather than driving the
// session's native transaction primitive, i.e. whether it started as other transactions were already
// active on the session.
func (t *Transaction) IsNested() bool {
	return t.savepointName != ""
}

// Start begins the transaction: a native BEGIN for the first transaction on the session, a SAVEPOINT
// for every subsequent one. Returns a StateError if the session holds no acquired connection.
func (t *Transaction) Start(ctx context.Context) error {
	if !t.session.IsReady() {
		return NewStateError(ErrNotReady)
	}

	if t.session.TransactionCount() > 0 {
		t.savepointName = newSavepointName()
		if _, err := t.session.Execute(ctx, "SAVEPOINT "+t.savepointName); err != nil {
			return err
		}
	} else {
		t.native = t.session.conn.NewTransaction(t.silent)
		if err := t.native.Start(ctx); err != nil {
			return err
		}
	}

	t.session.addTransaction(t)
	t.started = true

	return nil
}

// Commit ends the transaction successfully. If the session has since been released, Commit is a
// no-op when this Transaction (or an explicit silentOverride) is silent, and a StateError otherwise.
// Committing a Transaction that is not live (never started, or already ended) is likewise a
// StateError, or a no-op if the session has been released and the Transaction is silent.
func (t *Transaction) Commit(ctx context.Context, silentOverride ...bool) error {
	if !t.session.hasTransaction(t) {
		if !t.session.IsReady() && resolveSilent(t.silent, silentOverride) {
			return nil
		}
		return NewStateError(ErrNoActiveTransaction)
	}
	t.session.removeTransaction(t)
	t.terminated = true

	if t.session.IsReady() {
		if t.IsNested() {
			_, err := t.session.Execute(ctx, "RELEASE SAVEPOINT "+t.savepointName)
			return err
		}

		return t.native.Commit(ctx)
	}

	if resolveSilent(t.silent, silentOverride) {
		return nil
	}

	return NewStateError(ErrNoActiveTransaction)
}

// Rollback ends the transaction, undoing its effects. Silent semantics match Commit.
func (t *Transaction) Rollback(ctx context.Context, silentOverride ...bool) error {
	if !t.session.hasTransaction(t) {
		if !t.session.IsReady() && resolveSilent(t.silent, silentOverride) {
			return nil
		}
		return NewStateError(ErrNoActiveTransaction)
	}
	t.session.removeTransaction(t)
	t.terminated = true

	if t.session.IsReady() {
		if t.IsNested() {
			_, err := t.session.Execute(ctx, "ROLLBACK TO SAVEPOINT "+t.savepointName)
			return err
		}

		return t.native.Rollback(ctx)
	}

	if resolveSilent(t.silent, silentOverride) {
		return nil
	}

	return NewStateError(ErrNoActiveTransaction)
}

// Exit ends the transaction the way a "with" scope would: rollback if exitErr is non-nil and this
// Transaction is still live on its session, commit otherwise. exitErr is returned unchanged so
// callers can propagate the original error past a failed auto-rollback.
func (t *Transaction) Exit(ctx context.Context, exitErr error) error {
	if !t.session.hasTransaction(t) {
		return exitErr
	}

	if exitErr != nil {
		if err := t.Rollback(ctx); err != nil {
			return err
		}
		return exitErr
	}

	return t.Commit(ctx)
}

func resolveSilent(defaultSilent bool, override []bool) bool {
	if len(override) > 0 {
		return override[0]
	}
	return defaultSilent
}

func newSavepointName() string {
	id := uuid.New()
	return "AIODB__" + hex.EncodeToString(id[:])
}
