package domain

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by the planner,
// the asset generator and the session service to communicate failure classes
// to the transport layers.
// -----------------------------------------------------------------------------

// Input errors
var (
	ErrCredentialRequired = errors.New("credential is required")
	ErrObjectivesRequired = errors.New("learning objectives are required")
	ErrInvalidLevel       = errors.New("invalid school level")
	ErrInvalidRoomType    = errors.New("invalid escape room type")
	ErrInput              = errors.New("invalid input")
)

// Plan errors
var (
	ErrPlanNotReady       = errors.New("plan not generated yet")
	ErrPuzzleNotFound     = errors.New("puzzle not found")
	ErrInstructionMissing = errors.New("instruction is empty")
)

// Generation error sentinel, matched by errors.Is on any *GenerationError
var ErrGeneration = errors.New("generation failed")

// ValidationError reports missing or invalid user input. It is raised before
// any generator call is attempted.
type ValidationError struct {
	Field   string
	Message string
	cause   error
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// GenerationReason classifies generator failures for observability
type GenerationReason string

const (
	ReasonTransport         GenerationReason = "transport"
	ReasonAuth              GenerationReason = "auth"
	ReasonQuota             GenerationReason = "quota"
	ReasonUnavailable       GenerationReason = "unavailable"
	ReasonMalformedResponse GenerationReason = "malformed_response"
	ReasonEmptyResponse     GenerationReason = "empty_response"
)

// GenerationError is the single error type surfaced by the generator gateway.
type GenerationError struct {
	Reason GenerationReason
	Op     string
	Err    error
}

// NewGenerationError wraps err with a reason and the failing operation
func NewGenerationError(op string, reason GenerationReason, err error) *GenerationError {
	return &GenerationError{Op: op, Reason: reason, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: generation failed (%s)", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: generation failed (%s): %v", e.Op, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrGeneration) match any GenerationError
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// IsMalformed reports whether err is a malformed-response generation error
func IsMalformed(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Reason == ReasonMalformedResponse
}

// ClientSideError reports a local formatting or export failure. It is shown
// as a non-blocking notice.
type ClientSideError struct {
	Op  string
	Err error
}

func (e *ClientSideError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ClientSideError) Unwrap() error {
	return e.Err
}
