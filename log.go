package uno

import (
	"log/slog"

	"github.com/rs/zerolog"
)

// Logger is the uniform three-level log surface middlewares and handlers
// write to. Args are alternating key/value pairs, slog style.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogLogger adapts a *slog.Logger to the uniform Logger.
func SlogLogger(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// ZerologLogger adapts a zerolog.Logger to the uniform Logger.
func ZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{l: l}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z zerologLogger) Info(msg string, args ...any)  { z.l.Info().Fields(kvFields(args)).Msg(msg) }
func (z zerologLogger) Warn(msg string, args ...any)  { z.l.Warn().Fields(kvFields(args)).Msg(msg) }
func (z zerologLogger) Error(msg string, args ...any) { z.l.Error().Fields(kvFields(args)).Msg(msg) }

func kvFields(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[k] = args[i+1]
	}
	return fields
}

// NopLogger discards everything. Useful as a safe default.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
