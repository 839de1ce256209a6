package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel parses a log level string.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelOff:
		return zerolog.Disabled
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger writes JSON log lines to a file and, optionally, human readable
// lines to a console writer. Loggers derived with With share the output.
type Logger struct {
	mu       sync.RWMutex
	level    LogLevel
	zl       zerolog.Logger
	file     *os.File // owned by the root logger only
	filePath string
}

// NewLogger creates a logger writing to filePath.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	return newLogger(level, filePath, nil)
}

// NewLoggerFromConfig creates a logger from the logging section. When
// cfg.Console is set, lines are also written to console.
func NewLoggerFromConfig(cfg LoggingConfig, console io.Writer) (*Logger, error) {
	if !cfg.Console {
		console = nil
	}
	return newLogger(ParseLogLevel(cfg.Level), cfg.File, console)
}

func newLogger(level LogLevel, filePath string, console io.Writer) (*Logger, error) {
	logger := &Logger{
		level:    level,
		filePath: filePath,
		zl:       zerolog.Nop(),
	}

	if level == LogLevelOff {
		return logger, nil
	}

	var writers []io.Writer
	if filePath != "" {
		filePath = ExpandHome(filePath)

		dir := filepath.Dir(filePath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}

		// #nosec G304 -- log file path is from validated config
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		logger.file = f
		logger.filePath = filePath
		writers = append(writers, f)
	}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: "15:04:05",
		})
	}
	if len(writers) == 0 {
		return logger, nil
	}

	logger.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level.zerolog()).
		With().
		Timestamp().
		Logger()
	return logger, nil
}

// With returns a logger tagged with a component name.
func (l *Logger) With(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Logger{
		level:    l.level,
		zl:       l.zl.With().Str("component", component).Logger(),
		filePath: l.filePath,
	}
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.zl = zerolog.Nop()
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.zl = l.zl.Level(level.zerolog())
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.event(func(zl *zerolog.Logger) *zerolog.Event { return zl.Debug() }).Msgf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.event(func(zl *zerolog.Logger) *zerolog.Event { return zl.Info() }).Msgf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.event(func(zl *zerolog.Logger) *zerolog.Event { return zl.Error() }).Msgf(format, args...)
}

// event returns nil when the level is disabled; Msgf on a nil event is a no-op.
func (l *Logger) event(level func(*zerolog.Logger) *zerolog.Event) *zerolog.Event {
	l.mu.RLock()
	zl := l.zl
	l.mu.RUnlock()
	return level(&zl)
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff, zl: zerolog.Nop()}
}
