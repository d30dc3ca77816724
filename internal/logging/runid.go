// Package logging propagates sync-run ids through contexts so pipeline
// log lines can be correlated with their SyncRun record.
package logging

import "context"

type contextKey string

const runIDKey contextKey = "runId"

// WithRunID injects a sync-run id into the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the sync-run id from the context.
// Returns empty string if not found.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ShortID returns the first 8 characters of an id for log tagging.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
