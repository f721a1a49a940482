// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package logging contains the structured logging setup for the pulse service.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	slogotel "github.com/remychantenay/slog-otel"
)

type ctxKey string

// Public constants
const (
	ErrKey = "error"
)

// Private constants
const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	// Log field for critical errors, the ones that should page someone.
	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context handler on top of the chain.
func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context handler on top of the chain.
func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	existing, _ := parent.Value(slogFields).([]slog.Attr)
	// copy so sibling contexts never share a backing array
	attrs := make([]slog.Attr, 0, len(existing)+1)
	attrs = append(attrs, existing...)
	attrs = append(attrs, attr)
	return context.WithValue(parent, slogFields, attrs)
}

// ParseLevel maps the LOG_LEVEL values onto slog levels, defaulting to debug.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return logLevelDefault
	}
}

func isTruthy(value string) bool {
	return value == "true" || value == "t" || value == "1"
}

// NewHandler builds the handler chain: context attributes, then trace
// correlation, then a JSON (or text when format is "text") encoder.
func NewHandler(w io.Writer, level slog.Level, addSource bool, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return contextHandler{slogotel.OtelHandler{Next: h}}
}

// InitStructureLogConfig sets the structured log behavior from LOG_LEVEL,
// LOG_ADD_SOURCE and LOG_FORMAT and installs it as the default logger.
func InitStructureLogConfig() slog.Handler {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	addSource := isTruthy(os.Getenv("LOG_ADD_SOURCE"))

	h := NewHandler(os.Stdout, level, addSource, os.Getenv("LOG_FORMAT"))
	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(h))

	slog.Info("log config",
		"logLevel", level,
		"addSource", addSource,
	)

	return h
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical marks errors that should be escalated to the team.
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}
