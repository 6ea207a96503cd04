// Package logging builds the logrus logger shared by the CLI and the BFF.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and destination.
type Options struct {
	Level  string
	Format string
	Output io.Writer
	// Redact lists field names whose values are masked. Defaults to
	// DefaultRedactedFields.
	Redact []string
}

// DefaultRedactedFields never reach the log output in clear text.
var DefaultRedactedFields = []string{"token", "password", "authorization"}

// New builds a logger. An unknown level is an error; an unknown format
// falls back to text.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger.SetLevel(parsed)

	switch strings.ToLower(opts.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	redact := opts.Redact
	if redact == nil {
		redact = DefaultRedactedFields
	}
	if len(redact) > 0 {
		logger.AddHook(NewRedactHook(redact...))
	}
	return logger, nil
}

// Discard returns a logger that writes nowhere.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// RedactHook masks sensitive fields before an entry is formatted.
type RedactHook struct {
	fields map[string]struct{}
}

// NewRedactHook masks the named fields, matched case-insensitively.
func NewRedactHook(fields ...string) *RedactHook {
	h := &RedactHook{fields: map[string]struct{}{}}
	for _, f := range fields {
		h.fields[strings.ToLower(f)] = struct{}{}
	}
	return h
}

func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *RedactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if _, ok := h.fields[strings.ToLower(key)]; !ok {
			continue
		}
		entry.Data[key] = mask(fmt.Sprint(value))
	}
	return nil
}

func mask(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return v[:2] + strings.Repeat("*", 4) + v[len(v)-2:]
}
