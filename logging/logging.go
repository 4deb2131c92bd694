package logging

import (
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"sync"
	"time"
)

// Valid values for Config.Output.
const (
	CONSOLE = "console"
	JOURNAL = "journal"
)

// Logger is a wrapper around zap.SugaredLogger, additionally keeping track of the
// configured interval for periodic logging (see Logger.Interval).
type Logger struct {
	*zap.SugaredLogger

	interval time.Duration
}

// NewLogger returns a new Logger backed by sugar, using interval for periodic logging callers.
func NewLogger(sugar *zap.SugaredLogger, interval time.Duration) *Logger {
	return &Logger{SugaredLogger: sugar, interval: interval}
}

// Interval returns the duration at which this Logger's owner should periodically log progress,
// e.g. rows processed by a long-running Iterate or bulk write operation.
func (l *Logger) Interval() time.Duration {
	return l.interval
}

// NewNopLogger returns a Logger that discards everything, for callers that don't configure one.
func NewNopLogger() *Logger {
	return NewLogger(zap.NewNop().Sugar(), 0)
}

// Logging creates Loggers, tracking the underlying zap.Logger and the per-name log level overrides
// configured via Config.Options.
type Logging struct {
	logger *zap.Logger
	level  zapcore.Level
	output string

	interval time.Duration

	options Options

	mu      sync.Mutex
	loggers map[string]*Logger
}

// NewLoggingFromConfig creates a new Logging from Config, tagging entries with identifier
// (e.g. the name of the systemd service) when Config.Output is JOURNAL.
func NewLoggingFromConfig(identifier string, c Config) (*Logging, error) {
	if err := AssertOutput(c.Output); err != nil {
		return nil, err
	}

	var core zapcore.Core
	switch c.Output {
	case JOURNAL:
		core = NewJournaldCore(identifier, c.Level)
	case CONSOLE:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			c.Level,
		)
	default:
		return nil, invalidOutput(c.Output)
	}

	return &Logging{
		logger:   zap.New(core),
		level:    c.Level,
		output:   c.Output,
		interval: c.Interval,
		options:  c.Options,
		loggers:  make(map[string]*Logger),
	}, nil
}

// GetLogger returns the (possibly cached) Logger for name, honoring a per-name level
// override configured via Config.Options, if any. The override is applied with zap.IncreaseLevel,
// so it can only raise the level above Config.Level; an override below Config.Level has no effect.
func (l *Logging) GetLogger(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if logger, ok := l.loggers[name]; ok {
		return logger
	}

	enab := zapcore.LevelEnabler(l.level)
	if lvl, ok := l.options[name]; ok {
		enab = lvl
	}

	named := l.logger.Named(name).WithOptions(zap.IncreaseLevel(enab))
	logger := NewLogger(named.Sugar(), l.interval)
	l.loggers[name] = logger

	return logger
}

// GetChildLogger returns a Logger named "parent.child" (dotted), inheriting level overrides
// configured for that dotted name.
func (l *Logging) GetChildLogger(parent, child string) *Logger {
	return l.GetLogger(fmt.Sprintf("%s.%s", parent, child))
}
