package logging

import "log/slog"

// Common field names for consistent logging across commands.
const (
	FieldService     = "service"
	FieldError       = "error"
	FieldRunID       = "run_id"
	FieldIntegration = "integration"
	FieldDestination = "destination"
	FieldReason      = "reason"
	FieldBytes       = "bytes"
	FieldCount       = "count"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// RunID returns a slog attribute for an integration run ID.
func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// Integration returns a slog attribute for the integration name.
func Integration(name string) slog.Attr {
	return slog.String(FieldIntegration, name)
}

// Destination returns a slog attribute for the delivery socket path.
func Destination(path string) slog.Attr {
	return slog.String(FieldDestination, path)
}

// Reason returns a slog attribute for a failure reason code.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// Bytes returns a slog attribute for a payload size.
func Bytes(n int) slog.Attr {
	return slog.Int(FieldBytes, n)
}

// Count returns a slog attribute for a number of events.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}
