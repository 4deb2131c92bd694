package database

import (
	"context"
	"sync"

	"github.com/icinga/dbfacade/com"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/periodic"
)

// Session is one acquired (or acquirable) connection slot against a Backend, generic over every
// driver: the mutex that serializes cursor operations, the transaction bookkeeping, and the
// acquire/release lifecycle live here once; only Connection.Acquire/Release and the cursor ops
// themselves differ per backend.
//
// is_ready ⇔ the raw connection slot is non-null holds by construction: conn is only ever set while
// holding mu, and only ever read through IsReady/under mu.
type Session struct {
	backend Backend
	logger  *logging.Logger

	// mu is a buffered-1 channel standing in for the source's asyncio.Lock: sending acquires it,
	// receiving releases it, and a ctx.Done() case in the select makes acquisition cancelable.
	mu   chan struct{}
	conn Connection

	txMu         sync.Mutex
	transactions map[*Transaction]struct{}
}

// NewSession creates a detached Session bound to backend. The Session has no acquired connection
// until Acquire is called (directly, or via a Database connection/transaction scope).
func NewSession(backend Backend, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Session{
		backend:      backend,
		logger:       logger,
		mu:           make(chan struct{}, 1),
		transactions: make(map[*Transaction]struct{}),
	}
}

func (s *Session) lock(ctx context.Context) error {
	select {
	case s.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) unlock() {
	<-s.mu
}

// IsReady reports whether this Session currently holds an acquired raw connection.
func (s *Session) IsReady() bool {
	return s.conn != nil
}

// Acquire obtains a raw connection from the backend if this Session does not already hold one.
func (s *Session) Acquire(ctx context.Context) error {
	if s.IsReady() {
		return nil
	}

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if s.conn != nil {
		return nil
	}

	conn, err := s.backend.Acquire(ctx)
	if err != nil {
		return NewConnectError(err)
	}

	s.conn = conn
	return nil
}

// Release returns this Session's raw connection to the backend, if it holds one. Releasing an
// already-detached Session is a no-op.
func (s *Session) Release(ctx context.Context) error {
	if !s.IsReady() {
		return nil
	}

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if s.conn == nil {
		return nil
	}

	conn := s.conn
	s.conn = nil

	return s.backend.Release(ctx, conn)
}

func (s *Session) convert(query string) string {
	return s.backend.ConvertSQL(query)
}

// Execute runs query and returns the affected-row count/last-inserted ID the driver reports.
func (s *Session) Execute(ctx context.Context, query string, params ...any) (ExecResult, error) {
	sql := s.convert(query)
	s.logger.Debugw("execute", "query", sql, "params", params)

	if err := s.lock(ctx); err != nil {
		return ExecResult{}, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return ExecResult{}, NewStateError(ErrNotReady)
	}

	return s.conn.Execute(ctx, sql, params)
}

// ExecuteMany runs query once per entry in paramSets.
func (s *Session) ExecuteMany(ctx context.Context, query string, paramSets [][]any) (ExecResult, error) {
	sql := s.convert(query)
	s.logger.Debugw("executemany", "query", sql, "count", len(paramSets))

	if err := s.lock(ctx); err != nil {
		return ExecResult{}, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return ExecResult{}, NewStateError(ErrNotReady)
	}

	return s.conn.ExecuteMany(ctx, sql, paramSets)
}

// FetchAll runs query and returns every row.
func (s *Session) FetchAll(ctx context.Context, query string, params ...any) ([]Row, error) {
	sql := s.convert(query)
	s.logger.Debugw("fetchall", "query", sql, "params", params)

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return nil, NewStateError(ErrNotReady)
	}

	return s.conn.FetchAll(ctx, sql, params)
}

// FetchMany runs query and returns at most size rows.
func (s *Session) FetchMany(ctx context.Context, size int, query string, params ...any) ([]Row, error) {
	sql := s.convert(query)
	s.logger.Debugw("fetchmany", "query", sql, "size", size, "params", params)

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return nil, NewStateError(ErrNotReady)
	}

	return s.conn.FetchMany(ctx, size, sql, params)
}

// FetchOne runs query and returns its first row, if any.
func (s *Session) FetchOne(ctx context.Context, query string, params ...any) (Row, bool, error) {
	sql := s.convert(query)
	s.logger.Debugw("fetchone", "query", sql, "params", params)

	if err := s.lock(ctx); err != nil {
		return Row{}, false, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return Row{}, false, NewStateError(ErrNotReady)
	}

	return s.conn.FetchOne(ctx, sql, params)
}

// FetchVal runs query and returns a single column of its first row (column 0 by default).
func (s *Session) FetchVal(ctx context.Context, column any, query string, params ...any) (any, error) {
	sql := s.convert(query)
	s.logger.Debugw("fetchval", "query", sql, "column", column, "params", params)

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	if !s.IsReady() {
		return nil, NewStateError(ErrNotReady)
	}

	return s.conn.FetchVal(ctx, column, sql, params)
}

// Iterate runs query and returns a RowIterator streaming its result set. The Session's cursor lock
// is held for the iterator's entire lifetime and is only released when Close is called, mirroring the
// source's generator holding its "async with self._lock" open across yields.
func (s *Session) Iterate(ctx context.Context, query string, params ...any) (RowIterator, error) {
	sql := s.convert(query)
	s.logger.Debugw("iterate", "query", sql, "params", params)

	if err := s.lock(ctx); err != nil {
		return nil, err
	}

	if !s.IsReady() {
		s.unlock()
		return nil, NewStateError(ErrNotReady)
	}

	it, err := s.conn.Iterate(ctx, sql, params)
	if err != nil {
		s.unlock()
		return nil, err
	}

	wrapped := &sessionLockedIterator{inner: it, unlock: s.unlock}

	if interval := s.logger.Interval(); interval > 0 {
		wrapped.stopper = periodic.Start(ctx, interval, func(tick periodic.Tick) {
			s.logger.Infow("iterate progress", "rows", wrapped.rows.Val(), "elapsed", tick.Elapsed)
		}, periodic.OnStop(func(tick periodic.Tick) {
			s.logger.Debugw("iterate done", "rows", wrapped.rows.Val(), "elapsed", tick.Elapsed)
		}))
	}

	return wrapped, nil
}

// sessionLockedIterator releases its owning Session's cursor lock exactly once, on Close, and, when
// the Session's logger has a configured interval, periodically logs the number of rows streamed so
// far - the Go equivalent of the source's periodic progress logging for long-running iterations.
type sessionLockedIterator struct {
	inner   RowIterator
	unlock  func()
	closed  bool
	rows    com.Counter
	stopper periodic.Stopper
}

func (i *sessionLockedIterator) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := i.inner.Next(ctx)
	if ok {
		i.rows.Add(1)
	}
	return row, ok, err
}

func (i *sessionLockedIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true

	if i.stopper != nil {
		i.stopper.Stop()
	}

	err := i.inner.Close()
	i.unlock()
	return err
}

// TransactionCount returns the number of transactions currently active on this Session.
func (s *Session) TransactionCount() int {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	return len(s.transactions)
}

func (s *Session) addTransaction(tx *Transaction) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.transactions[tx] = struct{}{}
}

func (s *Session) removeTransaction(tx *Transaction) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	delete(s.transactions, tx)
}

func (s *Session) hasTransaction(tx *Transaction) bool {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	_, ok := s.transactions[tx]
	return ok
}

// NewTransaction creates a Transaction bound to this Session. silent downgrades commit/rollback
// StateErrors on a detached Session to a no-op, mirroring ABCTransaction's silent option.
func (s *Session) NewTransaction(silent bool) *Transaction {
	return newTransaction(s, silent)
}
