package database

import "github.com/pkg/errors"

// ConfigError indicates an unknown URL scheme or contradictory options passed to NewDatabase.
type ConfigError struct {
	cause error
}

// NewConfigError wraps cause as a ConfigError.
func NewConfigError(cause error) *ConfigError {
	return &ConfigError{cause: cause}
}

func (e *ConfigError) Error() string {
	return "database: config: " + e.cause.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.cause
}

// ConnectError indicates a backend failed to open its pool or acquire a raw connection.
type ConnectError struct {
	cause error
}

// NewConnectError wraps cause as a ConnectError.
func NewConnectError(cause error) *ConnectError {
	return &ConnectError{cause: cause}
}

func (e *ConnectError) Error() string {
	return "database: connect: " + e.cause.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.cause
}

// StateError indicates an operation was invalid for the current lifecycle state of a Session or
// Transaction: starting a transaction on a detached Session, or committing or rolling back a
// terminated Transaction. Disconnecting a Database that is not connected is a no-op, not an error.
type StateError struct {
	cause error
}

// NewStateError wraps cause as a StateError.
func NewStateError(cause error) *StateError {
	return &StateError{cause: cause}
}

func (e *StateError) Error() string {
	return "database: state: " + e.cause.Error()
}

func (e *StateError) Unwrap() error {
	return e.cause
}

// DriverError wraps an error a driver raised during a cursor call. The façade does not interpret or
// retry it; it is propagated as-is to the caller.
type DriverError struct {
	cause error
}

// NewDriverError wraps cause as a DriverError.
func NewDriverError(cause error) *DriverError {
	return &DriverError{cause: cause}
}

func (e *DriverError) Error() string {
	return "database: driver: " + e.cause.Error()
}

func (e *DriverError) Unwrap() error {
	return e.cause
}

var (
	// ErrNotReady is the cause wrapped by a StateError when an operation requires an acquired raw
	// connection that is not present.
	ErrNotReady = errors.New("no acquired connection")

	// ErrNoActiveTransaction is the cause wrapped by a StateError when commit/rollback is attempted
	// on a Transaction that was never started or has already terminated.
	ErrNoActiveTransaction = errors.New("no active transaction")

	// ErrUnknownScheme is the cause wrapped by a ConfigError when a URL scheme has no registered
	// backend and no matching shortcut alias.
	ErrUnknownScheme = errors.New("unknown backend scheme")
)
