package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Service   string
	Env       string
	Level     string
	AddSource bool
	// Writer defaults to os.Stdout; tests point it elsewhere.
	Writer io.Writer
}

// New builds a JSON slog logger tagged with the service identity and
// installs it as the process default.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	})

	attrs := []any{"service", opts.Service}
	if opts.Env != "" {
		attrs = append(attrs, "env", opts.Env)
	}

	base := slog.New(h).With(attrs...)
	slog.SetDefault(base)
	return base
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(lvl string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(lvl))]; ok {
		return l
	}
	return slog.LevelInfo
}
