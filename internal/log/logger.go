package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with the component it logs for. Switching
// components replaces the tag instead of stacking a second one.
type Logger struct {
	*slog.Logger
	root      *slog.Logger
	component string
}

// Config selects the handler. Handler, when set, wins over Format and Output.
type Config struct {
	Level     slog.Level
	Format    string // "text" (default) or "json"
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

// ParseLevel maps debug, info, warn/warning and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func New(cfg Config) *Logger {
	h := cfg.Handler
	if h == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: cfg.Level}
		if strings.EqualFold(cfg.Format, "json") {
			h = slog.NewJSONHandler(out, opts)
		} else {
			h = slog.NewTextHandler(out, opts)
		}
	}
	if cfg.Component == "" {
		cfg.Component = ComponentApp
	}
	return tagged(slog.New(h), cfg.Component)
}

func tagged(root *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		root:      root,
		component: component,
	}
}

// With adds attributes that survive a later WithComponent.
func (l *Logger) With(args ...any) *Logger {
	return tagged(l.root.With(args...), l.component)
}

func (l *Logger) WithComponent(component string) *Logger {
	return tagged(l.root, component)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs l without its component tag as the slog default.
// Packages logging through slog name their own component.
func SetDefault(l *Logger) {
	slog.SetDefault(l.root)
}
