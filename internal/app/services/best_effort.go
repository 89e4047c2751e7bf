package services

import (
	"context"
	"log/slog"
)

// BestEffort runs operations whose failure must not fail the caller.
// Failures are logged at Warn and swallowed.
type BestEffort struct {
	Log *slog.Logger
}

// Do runs fn and reports whether it succeeded.
func (b BestEffort) Do(ctx context.Context, operation string, fn func(context.Context) error) bool {
	err := fn(ctx)
	if err == nil {
		return true
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	log.WarnContext(ctx, "Best-effort operation failed", "operation", operation, "error", err)
	return false
}
