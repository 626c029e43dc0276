package logger

import (
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
	Layer         string
	Component     string
}

// Logger wraps a zerolog.Logger with the engine's narrower logging surface:
// Info/Debug/Warn/Error plus a WithFields field-scoping helper. Threaded
// explicitly through the test-case executor and step lifecycle — never a
// package-level instance.
type Logger struct {
	base zerolog.Logger
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	if opts.HumanReadable {
		writer = zerolog.ConsoleWriter{Out: writer}
	}

	base := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	ctx := base.With()
	if opts.Layer != "" {
		ctx = ctx.Str("layer", opts.Layer)
	}
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	base = ctx.Logger()

	return &Logger{base: base}, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(level)
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ctx := l.base.With()
	for _, key := range keys {
		ctx = ctx.Interface(key, fields[key])
	}

	return &Logger{base: ctx.Logger()}
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.AnErr("error", err)
	}
	event.Msg(msg)
}
