package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger wraps slog.Logger with a component name.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     string
	Component string
	Output    io.Writer
}

// DefaultConfig logs at info level to stderr, leaving stdout to the dashboard.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Component: ComponentApp,
		Output:    os.Stderr,
	}
}

// New creates a Logger backed by a charmbracelet/log handler.
func New(cfg Config) (*Logger, error) {
	level := charmlog.InfoLevel
	if cfg.Level != "" {
		parsed, err := charmlog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	component := cfg.Component
	if component == "" {
		component = ComponentApp
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		Prefix:          "finchat",
		ReportTimestamp: true,
	})
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}, nil
}

// Discard returns a Logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{
		Logger:    slog.New(charmlog.New(io.Discard)),
		component: ComponentApp,
	}
}

// With returns a new logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger tagged with a different component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
