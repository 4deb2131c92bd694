package database

import (
	"context"
	"net/url"
	"sync"

	"github.com/icinga/dbfacade/logging"
)

// Database is the façade applications use: it owns a Backend, dispatches scoped connection and
// transaction acquisition through the task-local Session registry in ctx, and exposes single-shot
// top-level operations that transparently reuse whatever Session a caller's ctx already carries.
type Database struct {
	url    string
	logger *logging.Logger

	mu        sync.Mutex
	backend   Backend
	connected bool
}

// Option configures NewDatabase.
type Option func(*databaseConfig)

type databaseConfig struct {
	logger        *logging.Logger
	convertParams bool
	options       map[string]string
}

// WithLogger sets the Logger a Database (and every Session it creates) logs through.
func WithLogger(logger *logging.Logger) Option {
	return func(c *databaseConfig) { c.logger = logger }
}

// WithConvertParams enables "%s" placeholder rewriting for backends that support it.
func WithConvertParams(convert bool) Option {
	return func(c *databaseConfig) { c.convertParams = convert }
}

// WithBackendOption sets a backend-specific connect option, overriding any same-named value parsed
// from the connection URL's query string.
func WithBackendOption(key, value string) Option {
	return func(c *databaseConfig) {
		if c.options == nil {
			c.options = make(map[string]string)
		}
		c.options[key] = value
	}
}

// NewDatabase parses rawURL, resolves its scheme (applying the postgres/postgressql/sqllite aliases)
// against the backend registry, and builds the matching Backend. Options parsed from the URL's query
// string are merged with explicit WithBackendOption values, the latter taking precedence, mirroring
// the source's "dict(parse_qsl(url.query), **options)" construction order.
func NewDatabase(rawURL string, opts ...Option) (*Database, error) {
	cfg := &databaseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = logging.NewNopLogger()
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewConfigError(err)
	}

	factory, ok := lookupBackend(parsed.Scheme)
	if !ok {
		return nil, NewConfigError(ErrUnknownScheme)
	}

	merged := make(map[string]string)
	for k, v := range parsed.Query() {
		if len(v) > 0 {
			merged[k] = v[0]
		}
	}
	for k, v := range cfg.options {
		merged[k] = v
	}

	backend, err := factory(parsed, merged, cfg.convertParams, cfg.logger)
	if err != nil {
		return nil, NewConfigError(err)
	}

	return &Database{url: rawURL, logger: cfg.logger, backend: backend}, nil
}

// Connect opens the backend's pool (a no-op for direct adapters). Idempotent.
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	d.logger.Infow("database connect", "url", d.url)

	if err := d.backend.Connect(ctx); err != nil {
		return NewConnectError(err)
	}

	d.connected = true
	return nil
}

// Disconnect releases ctx's task-current Session, if any, then closes the backend's pool. Idempotent.
func (d *Database) Disconnect(ctx context.Context) error {
	if sess, ok := sessionFromContext(ctx); ok {
		if err := sess.Release(ctx); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.logger.Infow("database disconnect", "url", d.url)

	if err := d.backend.Disconnect(ctx); err != nil {
		return err
	}

	d.connected = false
	return nil
}

// ConnScope is a connection acquisition scope: either a freshly acquired Session bound into a child
// context, or an adopted reference to ctx's existing task-current Session.
type ConnScope struct {
	ctx     context.Context
	session *Session
	owning  bool
}

// Context returns the scope's context, carrying its Session as the task-current one.
func (s *ConnScope) Context() context.Context {
	return s.ctx
}

// Session returns the Session this scope acquired or adopted.
func (s *ConnScope) Session() *Session {
	return s.session
}

// Close releases the Session if this scope acquired it; adopted scopes are a no-op, leaving the
// Session for whichever scope owns it.
func (s *ConnScope) Close(ctx context.Context) error {
	if !s.owning {
		return nil
	}
	return s.session.Release(ctx)
}

// Connection opens a connection scope against ctx. When ctx already carries a task-current Session,
// that Session is adopted rather than a new one acquired.
func (d *Database) Connection(ctx context.Context) (*ConnScope, error) {
	return d.connection(ctx, false)
}

// NewConnection always acquires a fresh Session, regardless of what ctx already carries.
func (d *Database) NewConnection(ctx context.Context) (*ConnScope, error) {
	return d.connection(ctx, true)
}

func (d *Database) connection(ctx context.Context, create bool) (*ConnScope, error) {
	if sess, ok := sessionFromContext(ctx); ok && !create {
		return &ConnScope{ctx: ctx, session: sess, owning: false}, nil
	}

	sess := NewSession(d.backend, d.logger)
	if err := sess.Acquire(ctx); err != nil {
		return nil, err
	}

	return &ConnScope{ctx: withSession(ctx, sess), session: sess, owning: true}, nil
}

// TxScope is a transaction scope layered on top of a ConnScope.
type TxScope struct {
	conn *ConnScope
	tx   *Transaction
}

// Context returns the scope's context, carrying its Session as the task-current one.
func (s *TxScope) Context() context.Context {
	return s.conn.Context()
}

// Transaction returns the Transaction this scope started.
func (s *TxScope) Transaction() *Transaction {
	return s.tx
}

// Close ends the Transaction per scoped-exit rules (rollback if exitErr is non-nil and the
// Transaction is still live, commit otherwise) and then closes the inner connection scope.
func (s *TxScope) Close(ctx context.Context, exitErr error) error {
	txErr := s.tx.Exit(ctx, exitErr)
	closeErr := s.conn.Close(ctx)

	if txErr != nil {
		return txErr
	}
	return closeErr
}

// Transaction opens a transaction scope: by default it reuses ctx's task-current Session (so nested
// calls within one task share a physical connection and nest via SAVEPOINT); create forces a fresh
// Session instead. silent governs the Transaction's behavior if its Session is released out from
// under it before commit/rollback.
func (d *Database) Transaction(ctx context.Context, create bool, silent bool) (*TxScope, error) {
	connScope, err := d.connection(ctx, create)
	if err != nil {
		return nil, err
	}

	tx := connScope.Session().NewTransaction(silent)
	if err := tx.Start(connScope.Context()); err != nil {
		_ = connScope.Close(connScope.Context())
		return nil, err
	}

	return &TxScope{conn: connScope, tx: tx}, nil
}

// Execute runs query against ctx's task-current Session, or a fresh ephemeral one if it has none.
func (d *Database) Execute(ctx context.Context, query string, params ...any) (ExecResult, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return ExecResult{}, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().Execute(scope.Context(), query, params...)
}

// ExecuteMany runs query once per entry in paramSets against ctx's task-current Session.
func (d *Database) ExecuteMany(ctx context.Context, query string, paramSets [][]any) (ExecResult, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return ExecResult{}, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().ExecuteMany(scope.Context(), query, paramSets)
}

// FetchAll runs query against ctx's task-current Session and returns every row.
func (d *Database) FetchAll(ctx context.Context, query string, params ...any) ([]Row, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().FetchAll(scope.Context(), query, params...)
}

// FetchMany runs query against ctx's task-current Session and returns at most size rows.
func (d *Database) FetchMany(ctx context.Context, size int, query string, params ...any) ([]Row, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().FetchMany(scope.Context(), size, query, params...)
}

// FetchOne runs query against ctx's task-current Session and returns its first row, if any.
func (d *Database) FetchOne(ctx context.Context, query string, params ...any) (Row, bool, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return Row{}, false, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().FetchOne(scope.Context(), query, params...)
}

// FetchVal runs query against ctx's task-current Session and returns a single column of its first
// row (column 0 by default).
func (d *Database) FetchVal(ctx context.Context, column any, query string, params ...any) (any, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Close(scope.Context())

	return scope.Session().FetchVal(scope.Context(), column, query, params...)
}

// Iterate runs query against ctx's task-current Session and returns a RowIterator. The underlying
// connection scope (and the Session it owns, if freshly acquired) is only closed once the returned
// iterator's Close is called, since the Session's cursor lock is held for the iterator's lifetime.
func (d *Database) Iterate(ctx context.Context, query string, params ...any) (RowIterator, error) {
	scope, err := d.Connection(ctx)
	if err != nil {
		return nil, err
	}

	it, err := scope.Session().Iterate(scope.Context(), query, params...)
	if err != nil {
		_ = scope.Close(scope.Context())
		return nil, err
	}

	return &scopeClosingIterator{inner: it, scope: scope}, nil
}

type scopeClosingIterator struct {
	inner  RowIterator
	scope  *ConnScope
	closed bool
}

func (i *scopeClosingIterator) Next(ctx context.Context) (Row, bool, error) {
	return i.inner.Next(ctx)
}

func (i *scopeClosingIterator) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true

	err := i.inner.Close()
	closeErr := i.scope.Close(i.scope.Context())

	if err != nil {
		return err
	}
	return closeErr
}
