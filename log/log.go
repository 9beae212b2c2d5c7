// Package log implements structured logging for the ops tooling and the
// digest history service.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// defaultCallerUnwind is log.DefaultCaller + 2 for the Debug/Info/... -> log wrappers.
const defaultCallerUnwind = 5

// Logger is a leveled, module-tagged structured logger.
type Logger struct {
	base   log.Logger // without timestamp/caller prefixes
	logger log.Logger
	level  Level
	module string
	unwind int
	ctx    []interface{}
}

// NewDefaultLogger returns a JSON logger writing to stdout at INFO.
// Commands should prefer common.RootLogger().
func NewDefaultLogger(module string) *Logger {
	logger, err := NewLogger(module, os.Stdout, FmtJSON, LevelInfo)
	if err != nil {
		// NewLogger only fails on an invalid format.
		panic(err)
	}
	return logger
}

// NewLogger initializes a new logger instance.
func NewLogger(module string, w io.Writer, format Format, lvl Level) (*Logger, error) {
	var base log.Logger
	switch format {
	case FmtLogfmt:
		base = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case FmtJSON:
		base = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("log: unsupported log format: %v", format)
	}

	l := &Logger{
		base:   base,
		level:  lvl,
		module: module,
		unwind: defaultCallerUnwind,
	}
	l.rebuild()
	return l, nil
}

func (l *Logger) rebuild() {
	prefixes := []interface{}{
		"ts", log.DefaultTimestampUTC,
		"caller", log.Caller(l.unwind),
	}
	l.logger = log.WithPrefix(l.base, prefixes...)
	if len(l.ctx) > 0 {
		l.logger = log.With(l.logger, l.ctx...)
	}
}

func (l *Logger) clone() *Logger {
	ctx := make([]interface{}, len(l.ctx))
	copy(ctx, l.ctx)
	return &Logger{
		base:   l.base,
		logger: l.logger,
		level:  l.level,
		module: l.module,
		unwind: l.unwind,
		ctx:    ctx,
	}
}

func (l *Logger) log(lvl Level, msg string, keyvals []interface{}) {
	if l.level > lvl {
		return
	}
	keyvals = append([]interface{}{"module", l.module, "msg", msg}, keyvals...)
	var leveled log.Logger
	switch lvl {
	case LevelDebug:
		leveled = level.Debug(l.logger)
	case LevelInfo:
		leveled = level.Info(l.logger)
	case LevelWarn:
		leveled = level.Warn(l.logger)
	default:
		leveled = level.Error(l.logger)
	}
	_ = leveled.Log(keyvals...)
}

// Debug logs the message and key value pairs at the Debug log level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(LevelDebug, msg, keyvals)
}

// Info logs the message and key value pairs at the Info log level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(LevelInfo, msg, keyvals)
}

// Warn logs the message and key value pairs at the Warn log level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(LevelWarn, msg, keyvals)
}

// Error logs the message and key value pairs at the Error log level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(LevelError, msg, keyvals)
}

// With returns a clone of the logger that adds keyvals to every record.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	c := l.clone()
	c.ctx = append(c.ctx, keyvals...)
	c.rebuild()
	return c
}

// WithModule returns a clone of the logger tagged with a different module.
func (l *Logger) WithModule(module string) *Logger {
	c := l.clone()
	c.module = module
	return c
}

// WithCallerUnwind returns a clone of the logger that reports the caller
// `unwind` frames up the stack. Used when the logger is wrapped by an
// adapter such as WriterIntoLogger.
func (l *Logger) WithCallerUnwind(unwind int) *Logger {
	c := l.clone()
	c.unwind = unwind
	c.rebuild()
	return c
}

// Level is the logging level.
func (l *Logger) Level() Level {
	return l.level
}

// Module is the module the logger tags records with.
func (l *Logger) Module() string {
	return l.module
}

type writerLogger struct {
	logger Logger
}

func (w writerLogger) Write(p []byte) (int, error) {
	w.logger.Info(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// WriterIntoLogger returns an io.Writer that logs every write as one INFO
// record, for libraries that only accept a stdlib *log.Logger.
func WriterIntoLogger(logger Logger) io.Writer {
	return writerLogger{logger: logger}
}
