package observability

import (
	"context"
	"log/slog"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// LogHooks logs every lifecycle event. Section and flush events are logged
// at Debug, fallbacks and aborts at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSectionStarted: func(ctx context.Context, e *domain.SectionStarted) {
			logger.DebugContext(ctx, string(e.Type), "request_id", e.RequestID, "section", e.Name)
		},
		OnSectionFinished: func(ctx context.Context, e *domain.SectionFinished) {
			logger.DebugContext(ctx, string(e.Type),
				"request_id", e.RequestID,
				"section", e.Name,
				"outcome", e.OutcomeKind,
				"elapsed", e.Elapsed,
				"attempts", e.Attempts,
			)
		},
		OnFallbackApplied: func(ctx context.Context, e *domain.FallbackApplied) {
			logger.WarnContext(ctx, string(e.Type), "request_id", e.RequestID, "section", e.Name, "mode", e.Mode)
		},
		OnFlush: func(ctx context.Context, e *domain.Flush) {
			logger.DebugContext(ctx, string(e.Type), "request_id", e.RequestID, "seq", e.Seq, "bytes", e.ByteCount)
		},
		OnResponseCompleted: func(ctx context.Context, e *domain.ResponseCompleted) {
			logger.InfoContext(ctx, string(e.Type), "request_id", e.RequestID, "status", e.Status)
		},
		OnResponseAborted: func(ctx context.Context, e *domain.ResponseAborted) {
			logger.WarnContext(ctx, string(e.Type), "request_id", e.RequestID, "reason", e.Reason)
		},
	}
}
