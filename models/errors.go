package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies booking and pricing failures so callers can react to
// each one differently.
type ErrorKind string

const (
	KindOutOfServiceArea    ErrorKind = "out_of_service_area"
	KindSlotTaken           ErrorKind = "slot_taken"
	KindInvalidTransition   ErrorKind = "invalid_transition"
	KindStoreError          ErrorKind = "store_error"
	KindInvalidConfig       ErrorKind = "invalid_config"
	KindNotFound            ErrorKind = "not_found"
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
)

// SchedulingError is the typed failure returned by the pricing, scheduling
// and settings services.
type SchedulingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SchedulingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// Is matches any SchedulingError of the same kind, so the sentinels below work
// with errors.Is regardless of message.
func (e *SchedulingError) Is(target error) bool {
	var t *SchedulingError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the same request may succeed if simply repeated.
func (e *SchedulingError) Retryable() bool {
	return e.Kind == KindStoreError
}

var (
	ErrOutOfServiceArea    = &SchedulingError{Kind: KindOutOfServiceArea, Message: "distance exceeds the provider's service area"}
	ErrSlotTaken           = &SchedulingError{Kind: KindSlotTaken, Message: "slot no longer available, pick another time"}
	ErrInvalidTransition   = &SchedulingError{Kind: KindInvalidTransition, Message: "status transition not allowed"}
	ErrStoreUnavailable    = &SchedulingError{Kind: KindStoreError, Message: "booking store unavailable"}
	ErrInvalidConfig       = &SchedulingError{Kind: KindInvalidConfig, Message: "invalid pricing configuration"}
	ErrNotFound            = &SchedulingError{Kind: KindNotFound, Message: "resource not found"}
	ErrInvalidRequest      = &SchedulingError{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrProviderUnavailable = &SchedulingError{Kind: KindProviderUnavailable, Message: "provider is not accepting bookings"}
)

// NewSchedulingError builds a SchedulingError of the given kind.
func NewSchedulingError(kind ErrorKind, message string, cause error) *SchedulingError {
	return &SchedulingError{Kind: kind, Message: message, Err: cause}
}

// StoreFailure wraps a collaborator failure as a retryable store error.
func StoreFailure(op string, cause error) *SchedulingError {
	return &SchedulingError{Kind: KindStoreError, Message: op, Err: cause}
}

// KindOf returns the kind of the first SchedulingError in err's chain, or an
// empty kind when there is none.
func KindOf(err error) ErrorKind {
	var se *SchedulingError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
