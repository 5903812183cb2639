package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger resolves slog.Default on every call so package-level loggers
// created before Init still pick up the configured handler.
type Logger struct {
	attrs []any
}

// Options select the handler installed by Init. Zero value gives debug text logs on stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

func Init(opts Options) {
	out := opts.Output
	if out == nil {
		// stdout belongs to answers and progress lines
		out = os.Stderr
	}
	options := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, options)
	} else {
		handler = slog.NewTextHandler(out, options)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		attrs: []any{"component", section},
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	inner := slog.Default()
	if !inner.Enabled(context.Background(), level) {
		return
	}
	inner.With(l.attrs...).Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{attrs: attrs}
}
