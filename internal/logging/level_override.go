package logging

import (
	"context"
	"log/slog"
)

// levelFloorHandler drops records below a minimum level before they reach
// the wrapped handler. The CLI uses it for --quiet and --verbose.
type levelFloorHandler struct {
	next  slog.Handler
	level slog.Level
}

func (h *levelFloorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.next.Enabled(ctx, level)
}

func (h *levelFloorHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelFloorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelFloorHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *levelFloorHandler) WithGroup(name string) slog.Handler {
	return &levelFloorHandler{next: h.next.WithGroup(name), level: h.level}
}

// WithLevelOverride returns a logger that only emits records at or above
// level. An existing override is replaced rather than stacked.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	next := logger.Handler()
	if floor, ok := next.(*levelFloorHandler); ok {
		next = floor.next
	}
	return slog.New(&levelFloorHandler{next: next, level: level})
}
