// Package obs contains observability utilities such as logging.
package obs

import (
	"expvar"
	"log/slog"
	"os"
	"strings"
)

// Logger is the global structured logger used by the service.
//
// It starts as an info-level JSON logger so packages can log before
// InitLogger runs, e.g. in tests.
var Logger = newLogger(slog.LevelInfo)

func newLogger(level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global Logger with JSON handler at the given level.
func InitLogger(level string) {
	Logger = newLogger(ParseLevel(level))
}

// Publish exposes fn under name on /debug/vars. Publishing the same name
// twice keeps the first registration.
func Publish(name string, fn func() any) {
	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, expvar.Func(fn))
}
