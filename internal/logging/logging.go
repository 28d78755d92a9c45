// Package logging provides the structured logger shared by every binary
// in this module: the access gateway, the hook pipeline, the proxy
// reconciler, and the deploy daemon. It wraps a zerolog.Logger so call
// sites can use printf-style verbs without reaching for zerolog's
// field-builder API everywhere.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin façade over zerolog.Logger.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger that writes leveled, structured lines to stderr.
// debug, when true, enables debug-level output (mirrors the DEBUG
// environment variable the hook pipeline already threads through the
// system).
func New(name string, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	z := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", name).
		Logger()

	return &Logger{z: z}
}

// With returns a child logger carrying the given key/value pairs on every
// subsequent line, e.g. l.With("key", identity.Key, "repo", repo.GitDir).
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{z: ctx.Logger()}
}

func (l *Logger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.z.Error().Msgf(format, args...) }

// Sync is a no-op retained for call-site symmetry with loggers that
// buffer writes; zerolog writes synchronously to its sink.
func (l *Logger) Sync() error { return nil }
