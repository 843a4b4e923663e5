package logging

import (
	"context"
	"log/slog"

	"mediaconv/internal/services"
)

const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldRunID identifies one invocation of the converter.
	FieldRunID = "run_id"
	// FieldJobIndex is the 1-based position of a job within its run.
	FieldJobIndex = "job_index"
	// FieldJobTotal is the number of jobs in the run.
	FieldJobTotal = "job_total"
	// FieldSource is the source path of the job.
	FieldSource = "source"
	// FieldTarget is the target path of the job.
	FieldTarget = "target"
	// FieldEventType classifies warnings and errors for grepping.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if index, total, ok := services.JobFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldJobIndex, index), slog.Int(FieldJobTotal, total))
	}
	if source, ok := services.SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, source))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
