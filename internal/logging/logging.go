// Package logging builds the slog.Logger used by the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

// LevelTrace is a custom level below Debug; the loader logs every fragment
// it keeps at this level.
const LevelTrace slog.Level = -8

var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel maps a level name to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("%q: %w", s, ErrUnknownLevel)
	}
}

// New returns a tint-backed logger writing to w. Colors are enabled only when
// w is a terminal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.Kitchen,
		NoColor:     !IsTerminal(w),
		ReplaceAttr: replaceTraceLevel,
	}))
}

// Setup parses level and returns a logger on stderr.
func Setup(level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(os.Stderr, lvl), nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func replaceTraceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRC")
		}
	}
	return a
}
