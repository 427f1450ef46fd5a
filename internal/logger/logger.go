// Package logger configures the slog logger shared by the sync engine, the
// HTTP API and the supervisor tree.
package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

// credentialQuery matches credential pairs inside provider URLs.
var credentialQuery = regexp.MustCompile(`(?i)\b(password|username)=[^&\s"]*`)

type Logger struct {
	*slog.Logger
}

// Config selects the level (debug, info, warn, error) and the format
// (text or json). Output defaults to stdout.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: maskCredentials,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a config level name onto slog, falling back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// maskCredentials hides password attributes and credential query pairs in
// any string or error value before it is written.
func maskCredentials(_ []string, a slog.Attr) slog.Attr {
	if strings.EqualFold(a.Key, "password") {
		return slog.String(a.Key, redacted)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); credentialQuery.MatchString(s) {
			return slog.String(a.Key, credentialQuery.ReplaceAllString(s, "$1="+redacted))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && credentialQuery.MatchString(err.Error()) {
			return slog.String(a.Key, credentialQuery.ReplaceAllString(err.Error(), "$1="+redacted))
		}
	}
	return a
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.With(args...)}
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

func (l *Logger) WithSubscription(subscriptionID int64) *Logger {
	return l.with("subscription_id", subscriptionID)
}

// WithRun tags records with the run id and its subscription.
func (l *Logger) WithRun(runID string, subscriptionID int64) *Logger {
	return l.with("run_id", runID, "subscription_id", subscriptionID)
}

func (l *Logger) WithStage(stage string) *Logger {
	return l.with("stage", stage)
}

// Default is an info level text logger on stdout.
func Default() *Logger {
	return New(Config{Level: "info", Format: "text"})
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
