// Package log provides structured logging for svrdash on top of zerolog.
//
// Two styles are supported:
//
//   - GetLogger returns the global *zerolog.Logger for event-style logging
//     (logger.Error().Err(err).Msg("...")).
//   - GetLoggerWithName returns a key/value Logger used by estimators and the
//     pipeline, with the well-known keys declared in keys.go.
//
// Example:
//
//	log.SetupLogger("info")
//	logger := log.GetLoggerWithName("svm").With(log.ModelNameKey, "SVR")
//	logger.Info("Training started", log.SamplesKey, 100, log.FeaturesKey, 4)
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging level.
type Level = zerolog.Level

// Logger is a key/value structured logger.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a child logger that always includes fields.
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out named loggers sharing one output and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

var (
	mu       sync.RWMutex
	global   = newZerolog(os.Stderr, zerolog.InfoLevel)
	provider LoggerProvider
)

func newZerolog(w io.Writer, level Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ToLogLevel parses a level name. Unknown names map to info.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetupLogger configures the global logger with a human-readable console writer.
func SetupLogger(level string) {
	SetOutput(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, ToLogLevel(level))
}

// SetOutput replaces the global writer and level. Tests use it to capture output.
func SetOutput(w io.Writer, level Level) {
	mu.Lock()
	defer mu.Unlock()
	global = newZerolog(w, level)
	provider = &zerologProvider{base: global}
}

// GetLogger returns the global zerolog logger.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// GetLoggerWithName returns a key/value logger tagged with name.
func GetLoggerWithName(name string) Logger {
	mu.Lock()
	if provider == nil {
		provider = &zerologProvider{base: global}
	}
	p := provider
	mu.Unlock()
	return p.GetLoggerWithName(name)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

type zerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base.With().Str(NameKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(level)
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	z.l.Debug().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	z.l.Info().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	z.l.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level. A leading error field is attached with Err.
func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := z.l.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(fields).Logger()}
}
