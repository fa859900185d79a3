package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a named unit of work inside a request. Ending it logs the
// elapsed time under the trace the span belongs to.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan opens a span named name under the current trace, minting a trace
// identifier if the context does not carry one yet. The returned context
// holds a logger annotated with the trace, span, and parent span ids; pass
// it to nested work so child spans chain correctly.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := traceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = withTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent := spanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End emits the completion entry for the span. Calling End on a nil span is
// a no-op.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
