/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrValidation is returned when a request fails local pre-flight validation
	ErrValidation = errors.New("validation failed")

	// ErrSerialization is returned when an entity cannot be serialized or deserialized
	ErrSerialization = errors.New("serialization failed")

	// ErrService is returned when the table service reports an error
	ErrService = errors.New("service error")

	// ErrTransport is returned when the transport layer fails before a response is received
	ErrTransport = errors.New("transport error")

	// ErrRetryExhausted is returned when the retry budget is spent without success
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrNotFound is returned when an entity or table is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when attempting to create an entity or table that already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrConditionFailed is returned when an optimistic-concurrency precondition fails
	ErrConditionFailed = errors.New("precondition failed")
)

// ValidationError represents a local pre-flight validation failure.
// It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PropertyParseError represents a property value that could not be parsed
// as its declared or resolved type. It carries enough context to diagnose
// the failure without a network trace.
type PropertyParseError struct {
	Property   string
	Value      string
	TargetType string
	Cause      error
}

func (e *PropertyParseError) Error() string {
	return fmt.Sprintf("property %q: cannot parse %q as %s: %v", e.Property, e.Value, e.TargetType, e.Cause)
}

func (e *PropertyParseError) Is(target error) bool {
	return target == ErrSerialization
}

func (e *PropertyParseError) Unwrap() error {
	return e.Cause
}

// ResolverError represents a failure raised by a property resolver delegate,
// as opposed to a data-shape problem. The original error is retained as the cause.
type ResolverError struct {
	Property string
	Cause    error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("property resolver failed for %q: %v", e.Property, e.Cause)
}

func (e *ResolverError) Is(target error) bool {
	return target == ErrSerialization
}

func (e *ResolverError) Unwrap() error {
	return e.Cause
}

// ServiceError represents an error reported by the table service.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	// BatchIndex is the zero-based index of the failing operation when the
	// error was produced by a batch, or -1 when not applicable.
	BatchIndex int
}

func (e *ServiceError) Error() string {
	if e.BatchIndex >= 0 {
		return fmt.Sprintf("service error %d (%s) at batch index %d: %s", e.StatusCode, e.Code, e.BatchIndex, e.Message)
	}
	return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrService:
		return true
	case ErrNotFound:
		return e.StatusCode == 404 || e.Code == "ResourceNotFound" || e.Code == "TableNotFound" || e.Code == "EntityNotFound"
	case ErrAlreadyExists:
		return e.StatusCode == 409 && (e.Code == "EntityAlreadyExists" || e.Code == "TableAlreadyExists")
	case ErrConditionFailed:
		return e.StatusCode == 412 || e.Code == "UpdateConditionNotSatisfied" || e.Code == "ConditionNotMet"
	}
	return false
}

// TransportError represents a network-level failure before a service response
// was received.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed: %v", e.Cause)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError wraps the last cause after the retry budget is spent.
type RetryExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Cause
}

// Helper functions for creating errors

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewPropertyParseError creates a new PropertyParseError
func NewPropertyParseError(property, value, targetType string, cause error) error {
	return &PropertyParseError{Property: property, Value: value, TargetType: targetType, Cause: cause}
}

// NewResolverError creates a new ResolverError
func NewResolverError(property string, cause error) error {
	return &ResolverError{Property: property, Cause: cause}
}

// NewServiceError creates a new ServiceError with no batch index
func NewServiceError(statusCode int, code, message string) error {
	return &ServiceError{StatusCode: statusCode, Code: code, Message: message, BatchIndex: -1}
}

// NewBatchServiceError creates a new ServiceError annotated with the failing
// operation's index
func NewBatchServiceError(statusCode int, code, message string, index int) error {
	return &ServiceError{StatusCode: statusCode, Code: code, Message: message, BatchIndex: index}
}

// NewTransportError creates a new TransportError
func NewTransportError(cause error) error {
	return &TransportError{Cause: cause}
}

// NewRetryExhaustedError creates a new RetryExhaustedError
func NewRetryExhaustedError(attempts int, cause error) error {
	return &RetryExhaustedError{Attempts: attempts, Cause: cause}
}

// IsValidation checks if an error is a local validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsSerialization checks if an error is a serialization error
func IsSerialization(err error) bool {
	return errors.Is(err, ErrSerialization)
}

// IsService checks if an error is a service-reported error
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}

// IsTransport checks if an error is a transport-level error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConditionFailed checks if an error is a precondition failure
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsRetryExhausted checks if an error is an exhausted-retry error
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}
