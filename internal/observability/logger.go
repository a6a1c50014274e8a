package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger writes one JSON object per event. Event names are snake_case;
// fields are flattened into the object.
type Logger struct {
	base *slog.Logger
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

func NewLoggerTo(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.String("timestamp", attr.Value.Time().UTC().Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String("level", levelName(attr.Value.Any()))
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})
	return &Logger{base: slog.New(handler)}
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.write(slog.LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.write(slog.LevelWarn, message, fields)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.write(slog.LevelError, message, fields)
}

func (l *Logger) write(level slog.Level, message string, fields map[string]any) {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.base.LogAttrs(context.Background(), level, message, attrs...)
}

func levelName(value any) string {
	level, ok := value.(slog.Level)
	if !ok {
		return "info"
	}
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	default:
		return "info"
	}
}
