// Package errors provides the error taxonomy shared by the matching engine,
// the assignment manager and the BPMN job workers.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Taxonomy
// ==========================

// Kind is the coarse category a caller branches on.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindNotFound    Kind = "NOT_FOUND"
	KindUnavailable Kind = "UNAVAILABLE"
	KindConflict    Kind = "CONFLICT"
	KindInternal    Kind = "INTERNAL"
)

// ErrorCode is the specific, BPMN-facing error code.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidOverrides   ErrorCode = "INVALID_MATCH_OVERRIDES"
	ErrCodeActorNotAuthorized ErrorCode = "ACTOR_NOT_AUTHORIZED"
	ErrCodeRequestNotFound    ErrorCode = "SERVICE_REQUEST_NOT_FOUND"
	ErrCodeContractorNotFound ErrorCode = "CONTRACTOR_NOT_FOUND"
	ErrCodeAssignmentNotFound ErrorCode = "ASSIGNMENT_NOT_FOUND"
	ErrCodeStoreUnavailable   ErrorCode = "CONTRACTOR_STORE_UNAVAILABLE"
	ErrCodeStoreTimeout       ErrorCode = "STORE_TIMEOUT"
	ErrCodeAssignmentConflict ErrorCode = "ASSIGNMENT_CONFLICT"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

var kindByCode = map[ErrorCode]Kind{
	ErrCodeInvalidInput:       KindValidation,
	ErrCodeInvalidOverrides:   KindValidation,
	ErrCodeActorNotAuthorized: KindValidation,
	ErrCodeRequestNotFound:    KindNotFound,
	ErrCodeContractorNotFound: KindNotFound,
	ErrCodeAssignmentNotFound: KindNotFound,
	ErrCodeStoreUnavailable:   KindUnavailable,
	ErrCodeStoreTimeout:       KindUnavailable,
	ErrCodeAssignmentConflict: KindConflict,
	ErrCodeInvalidTransition:  KindConflict,
	ErrCodeInternal:           KindInternal,
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Kind      Kind                   `json:"kind"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	kind, ok := kindByCode[code]
	if !ok {
		kind = KindInternal
	}
	return &StandardError{
		Code:      code,
		Kind:      kind,
		Message:   message,
		Details:   details,
		Retryable: kind == KindUnavailable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Constructors
// ==========================

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, nil)
}

func NewInvalidOverridesError(details string) *StandardError {
	return newError(ErrCodeInvalidOverrides, "Invalid match overrides", details, nil)
}

func NewActorNotAuthorizedError(actorID, capability string) *StandardError {
	return newError(ErrCodeActorNotAuthorized, "Actor is not allowed to perform this action",
		fmt.Sprintf("actorId: %s, capability: %s", actorID, capability), nil)
}

func NewRequestNotFoundError(requestID string) *StandardError {
	return newError(ErrCodeRequestNotFound, "Service request not found",
		fmt.Sprintf("serviceRequestId: %s", requestID), nil)
}

func NewContractorNotFoundError(contractorID string) *StandardError {
	return newError(ErrCodeContractorNotFound, "Contractor not found",
		fmt.Sprintf("contractorId: %s", contractorID), nil)
}

func NewAssignmentNotFoundError(requestID string) *StandardError {
	return newError(ErrCodeAssignmentNotFound, "No active assignment for service request",
		fmt.Sprintf("serviceRequestId: %s", requestID), nil)
}

// NewUnavailableError wraps a store failure. Deadline expiry gets the
// timeout code so it retries fewer times.
func NewUnavailableError(store string, err error) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return newError(ErrCodeStoreTimeout, fmt.Sprintf("Store '%s' timed out", store), errString(err), err)
	}
	return newError(ErrCodeStoreUnavailable, fmt.Sprintf("Store '%s' unavailable", store), errString(err), err)
}

func NewConflictError(details string) *StandardError {
	return newError(ErrCodeAssignmentConflict, "Service request is not in an assignable state", details, nil)
}

func NewInvalidTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errString(err), err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Inspection
// ==========================

// AsStandardError finds a StandardError anywhere in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// KindOf reports the taxonomy kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsValidation(err error) bool  { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool    { return IsKind(err, KindNotFound) }
func IsUnavailable(err error) bool { return IsKind(err, KindUnavailable) }
func IsConflict(err error) bool    { return IsKind(err, KindConflict) }

// ==========================
// 4. BPMN Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns the recommended job retries for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable:
		return 3
	case ErrCodeStoreTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"errorKind": string(stdErr.Kind),
		"timestamp": stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category used in job failure logs.
func GetErrorCategory(code ErrorCode) string {
	kind, ok := kindByCode[code]
	if !ok {
		return "OTHER"
	}
	return string(kind)
}
