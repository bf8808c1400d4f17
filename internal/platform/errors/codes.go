// Package errors provides structured error handling for command execution.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session guard errors
	CodeMissingSessionID Code = "MISSING_SESSION_ID"
	CodeInvalidSessionID Code = "INVALID_SESSION_ID"
	CodeSessionClosed    Code = "SESSION_CLOSED"

	// Command outcome errors
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRaceCondition    Code = "RACE_CONDITION"
	CodeInternal         Code = "INTERNAL"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeUniqueViolation Code = "UNIQUE_VIOLATION"
)

// GRPCCode maps domain codes to gRPC status codes for the transport collaborator.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// Unauthenticated - session guard rejected the command
	case CodeMissingSessionID, CodeInvalidSessionID, CodeSessionClosed:
		return codes.Unauthenticated

	// FailedPrecondition - business rule rejected the command
	case CodeValidationFailed:
		return codes.FailedPrecondition

	// Aborted - retryable with fresh input after a concurrent writer won
	case CodeRaceCondition:
		return codes.Aborted

	case CodeNotFound:
		return codes.NotFound

	case CodeUniqueViolation:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
