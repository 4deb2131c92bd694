package database

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/icinga/dbfacade/backoff"
	"github.com/icinga/dbfacade/logging"
	"github.com/icinga/dbfacade/retry"
)

// RetryConnector wraps a driver.Connector, retrying transient dial failures with exponential
// backoff and jitter. Only pooled adapters use this: a direct adapter dials once per acquire and
// surfaces a failed dial as a ConnectError without retrying, since retrying a dial is a pool-level
// concern that only makes sense when a connector is dialed repeatedly over the backend's lifetime.
type RetryConnector struct {
	driver.Connector

	logger  *logging.Logger
	timeout time.Duration
}

// NewRetryConnector wraps connector, retrying dial failures classified by retry.Retryable for up to
// timeout (retry.DefaultTimeout if zero).
func NewRetryConnector(connector driver.Connector, logger *logging.Logger, timeout time.Duration) *RetryConnector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = retry.DefaultTimeout
	}

	return &RetryConnector{Connector: connector, logger: logger, timeout: timeout}
}

// Connect dials the wrapped connector, retrying on a retryable error.
func (c *RetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	var conn driver.Conn

	err := retry.WithBackoff(
		ctx,
		func(ctx context.Context) error {
			var err error
			conn, err = c.Connector.Connect(ctx)
			return err
		},
		retry.Retryable,
		backoff.NewExponentialWithJitter(25*time.Millisecond, 5*time.Second),
		retry.Settings{
			Timeout: c.timeout,
			OnRetryableError: func(elapsed time.Duration, attempt uint64, err, lastErr error) {
				c.logger.Warnw("retrying connection attempt", "attempt", attempt, "elapsed", elapsed, "error", err)
			},
		},
	)
	if err != nil {
		return nil, NewConnectError(err)
	}

	return conn, nil
}
