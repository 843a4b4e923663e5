package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	jobKey    contextKey = "job"
	sourceKey contextKey = "source"
)

type jobPosition struct {
	index int
	total int
}

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJob annotates context with a job's 1-based index and the batch size.
func WithJob(ctx context.Context, index, total int) context.Context {
	if index <= 0 {
		return ctx
	}
	return context.WithValue(ctx, jobKey, jobPosition{index: index, total: total})
}

// JobFromContext returns the job index and batch size if present.
func JobFromContext(ctx context.Context) (int, int, bool) {
	if v, ok := ctx.Value(jobKey).(jobPosition); ok {
		return v.index, v.total, true
	}
	return 0, 0, false
}

// WithSource annotates context with the job's source path.
func WithSource(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, path)
}

// SourceFromContext returns the source path if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
