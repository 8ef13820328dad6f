package logger

import (
	"context"
	"errors"
	"log/slog"
)

// TeeHandler forwards every record to all wrapped handlers.
// It is used to keep console output while also exporting logs over OTLP.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler writing to each of handlers in order.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled reports whether any wrapped handler handles records at level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, wrapped := range h.handlers {
		if wrapped.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to every wrapped handler that accepts its level.
// A failing destination does not stop delivery to the others.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, wrapped := range h.handlers {
		if !wrapped.Enabled(ctx, r.Level) {
			continue
		}
		if err := wrapped.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with attrs bound on every destination.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, wrapped := range h.handlers {
		next[i] = wrapped.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

// WithGroup returns a new handler with the group opened on every destination.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, wrapped := range h.handlers {
		next[i] = wrapped.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}
