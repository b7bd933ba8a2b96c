package errors

import (
	"errors"
	"fmt"
)

// Error types for the reconciliation job
type ErrorType string

const (
	ErrorTypeInvalidCredential   ErrorType = "INVALID_CREDENTIAL_ERROR"
	ErrorTypeMalformedCredential ErrorType = "MALFORMED_CREDENTIAL_ERROR"
	ErrorTypeConnection          ErrorType = "CONNECTION_ERROR"
	ErrorTypeEmptyAuthoritative  ErrorType = "EMPTY_AUTHORITATIVE_SET_ERROR"
	ErrorTypeDeletion            ErrorType = "DELETION_ERROR"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeValidation          ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure      ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeInternal            ErrorType = "INTERNAL_ERROR"
)

// Process exit codes
const (
	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

// Common sentinel errors
var (
	ErrNotFound              = errors.New("resource not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrCollectionNotFound    = errors.New("collection not found")
	ErrInvalidPath           = errors.New("invalid document path")
	ErrInvalidDocumentID     = errors.New("invalid document ID")
	ErrMissingCredential     = errors.New("credential source is required")
	ErrInvalidStateChange    = errors.New("invalid run state transition")
	ErrConfirmationAborted   = errors.New("confirmation aborted")
	ErrStoreAlreadyClosed    = errors.New("document store already closed")
	ErrAuthoritativeSetEmpty = errors.New("authoritative set is empty")
)

// AppError represents an application error with the context needed to report it
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	ExitCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, exitCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		ExitCode: exitCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Fatal constructors. These abort the run and map to a non-zero exit code.

// NewInvalidCredentialError reports a missing field or an unreadable credential source
func NewInvalidCredentialError(message string) *AppError {
	return NewAppError(ErrorTypeInvalidCredential, message, ExitCodeFailure)
}

// NewMalformedCredentialError reports a credential source that cannot be parsed
func NewMalformedCredentialError(message string) *AppError {
	return NewAppError(ErrorTypeMalformedCredential, message, ExitCodeFailure)
}

// NewConnectionError reports a failure to reach the document store
func NewConnectionError(message string) *AppError {
	return NewAppError(ErrorTypeConnection, message, ExitCodeFailure)
}

// NewEmptyAuthoritativeSetError reports that the authoritative collection returned no IDs
func NewEmptyAuthoritativeSetError(collection string) *AppError {
	return NewAppError(ErrorTypeEmptyAuthoritative,
		fmt.Sprintf("collection %q returned no documents; refusing to treat every favorite as orphaned", collection),
		ExitCodeFailure).
		WithCause(ErrAuthoritativeSetEmpty).
		WithDetail("collection", collection)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, ExitCodeFailure)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, ExitCodeFailure)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, ExitCodeFailure)
}

// Recoverable constructors. The job absorbs these into its statistics.

// NewDeletionError reports a failed document deletion
func NewDeletionError(path string) *AppError {
	return NewAppError(ErrorTypeDeletion, fmt.Sprintf("failed to delete %s", path), ExitCodeSuccess).
		WithDetail("path", path)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), ExitCodeSuccess).
		WithCause(ErrNotFound)
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
	return ve
}

// Fields returns the names of the failing fields in insertion order
func (ve *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

func hasType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsInvalidCredential checks if an error is an invalid credential error
func IsInvalidCredential(err error) bool {
	return hasType(err, ErrorTypeInvalidCredential)
}

// IsMalformedCredential checks if an error is a malformed credential error
func IsMalformedCredential(err error) bool {
	return hasType(err, ErrorTypeMalformedCredential)
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return hasType(err, ErrorTypeConnection)
}

// IsEmptyAuthoritativeSet checks if an error is the empty authoritative set guard
func IsEmptyAuthoritativeSet(err error) bool {
	return hasType(err, ErrorTypeEmptyAuthoritative) || errors.Is(err, ErrAuthoritativeSetEmpty)
}

// IsDeletion checks if an error is a deletion error
func IsDeletion(err error) bool {
	return hasType(err, ErrorTypeDeletion)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if hasType(err, ErrorTypeNotFound) {
		return true
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrCollectionNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// ExitCodeFor maps an error returned by a run to the process exit status
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != ExitCodeSuccess {
		return appErr.ExitCode
	}
	return ExitCodeFailure
}
