package util

import "fmt"

// DefaultErrMaxLen caps error messages persisted on sync-run records.
// Full provider error bodies can be very large; the record only needs
// enough to diagnose the failure class.
const DefaultErrMaxLen = 512

// TruncateError truncates long strings for persistence and logging.
func TruncateError(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}
