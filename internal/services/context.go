package services

import "context"

type contextKey string

const (
	pageIndexKey contextKey = "page_index"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithPageIndex annotates context with the 1-based sub-page index.
func WithPageIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, pageIndexKey, index)
}

// PageIndexFromContext extracts the sub-page index if present.
func PageIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(pageIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
