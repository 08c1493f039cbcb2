package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
)

type ctxLoggerKey struct{}

var (
	defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	defaultMu     sync.RWMutex
)

// Format selects the log handler
type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

// inlineImagePattern matches base64 data URLs so that image payloads never
// end up in log lines.
var inlineImagePattern = regexp.MustCompile(`^data:[a-zA-Z0-9.+/-]*;base64,`)

// Filter returns the masq redaction hook shared by every handler
func Filter() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("APIKey"),
		masq.WithFieldName("ImageBase64"),
		masq.WithContain("secret"),
		masq.WithTag("secret"),
		masq.WithRegex(inlineImagePattern),
	)
}

// New builds a logger writing to w with the given format and level
func New(w io.Writer, format Format, level slog.Level) *slog.Logger {
	switch format {
	case FormatConsole:
		return slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(Filter()),
		))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   level <= slog.LevelDebug,
			Level:       level,
			ReplaceAttr: Filter(),
		}))
	}
}

// Default returns the process-wide logger
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// With embeds logger in ctx
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger embedded in ctx, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
