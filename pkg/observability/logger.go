// Package observability carries Huddle's ambient concerns: slog setup with
// context-derived attributes, in-process metrics, and dependency health
// checks.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Level     slog.Level
	JSON      bool
	AddSource bool
	Output    io.Writer
	Service   string
	Version   string
}

// LogOptionsFromEnv reads HUDDLE_ENV, HUDDLE_LOG_LEVEL, HUDDLE_LOG_FORMAT
// and HUDDLE_VERSION through getenv. Production defaults to JSON on stdout
// with source locations; anything else gets text on stderr.
func LogOptionsFromEnv(getenv func(string) string) LogOptions {
	opts := LogOptions{
		Level:   slog.LevelInfo,
		Output:  os.Stderr,
		Service: "huddle",
		Version: "dev",
	}
	if getenv("HUDDLE_ENV") == "production" {
		opts.JSON = true
		opts.AddSource = true
		opts.Output = os.Stdout
	}
	if level := getenv("HUDDLE_LOG_LEVEL"); level != "" {
		opts.Level = ParseLevel(level)
	}
	switch strings.ToLower(getenv("HUDDLE_LOG_FORMAT")) {
	case "json":
		opts.JSON = true
	case "text":
		opts.JSON = false
	}
	if version := getenv("HUDDLE_VERSION"); version != "" {
		opts.Version = version
	}
	return opts
}

// ParseLevel accepts slog level names (debug, info, warn, error, with
// optional offsets such as "warn+2"). Unknown input yields info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds a slog.Logger whose records pick up the correlation ID,
// request ID and actor stored in the logging context.
func NewLogger(opts LogOptions) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}

	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(out, handlerOpts)
	} else {
		base = slog.NewTextHandler(out, handlerOpts)
	}

	var static []slog.Attr
	if opts.Service != "" {
		static = append(static, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		static = append(static, slog.String("version", opts.Version))
	}
	if len(static) > 0 {
		base = base.WithAttrs(static)
	}
	return slog.New(contextHandler{base})
}

// LoggerFromEnv is NewLogger(LogOptionsFromEnv(os.Getenv)).
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogOptionsFromEnv(os.Getenv))
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	if actor := ActorFromContext(ctx); actor != "" {
		r.AddAttrs(slog.String(ActorKey, actor))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
