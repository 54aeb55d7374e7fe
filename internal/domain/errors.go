package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrRejected         = errors.New("event rejected")
	ErrStorage          = errors.New("storage failure")
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("validation: %d errors (%s)", len(e.Errors), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// RejectionKind classifies why the ledger refused an event.
type RejectionKind string

const (
	RejectionIllegalTransition    RejectionKind = "IllegalTransition"
	RejectionOutOfOrderTimestamp  RejectionKind = "OutOfOrderTimestamp"
	RejectionDuplicateUniqueEvent RejectionKind = "DuplicateUniqueEvent"
	RejectionParentRequired       RejectionKind = "ParentRequired"
	RejectionUnexpectedParent     RejectionKind = "UnexpectedParent"
	RejectionParentNotFound       RejectionKind = "ParentNotFound"
	RejectionInvalidParentKind    RejectionKind = "InvalidParentKind"
)

func (k RejectionKind) String() string { return string(k) }

// RejectionError is a deterministic validation failure of a candidate event.
// Retrying with the same input reproduces it.
type RejectionError struct {
	Reason RejectionKind
	// Kind is the kind of the rejected candidate event.
	Kind EventKind
	// From is the item's latest kind for IllegalTransition; nil when the item had no events.
	From *EventKind
	// Timestamp is the candidate's timestamp.
	Timestamp time.Time
	// ParentID is the parent the candidate referenced, if any.
	ParentID *int64
	// Conflicting is the existing event that caused the rejection
	// (the duplicate, the latest event, or the mismatched parent).
	Conflicting *Event
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case RejectionIllegalTransition:
		from := "<none>"
		if e.From != nil {
			from = e.From.String()
		}
		return fmt.Sprintf("illegal transition from %s to %s", from, e.Kind)
	case RejectionOutOfOrderTimestamp:
		if e.Conflicting != nil {
			return fmt.Sprintf("%s at %s is not after latest event %d at %s",
				e.Kind, e.Timestamp.Format(time.RFC3339Nano), e.Conflicting.ID,
				e.Conflicting.Timestamp.Format(time.RFC3339Nano))
		}
		return fmt.Sprintf("%s at %s is out of order", e.Kind, e.Timestamp.Format(time.RFC3339Nano))
	case RejectionDuplicateUniqueEvent:
		if e.Conflicting != nil {
			return fmt.Sprintf("%s already recorded as event %d", e.Kind, e.Conflicting.ID)
		}
		return fmt.Sprintf("%s already recorded", e.Kind)
	case RejectionParentRequired:
		want, _ := e.Kind.RequiredParent()
		return fmt.Sprintf("%s requires a %s parent", e.Kind, want)
	case RejectionUnexpectedParent:
		return fmt.Sprintf("%s does not accept a parent", e.Kind)
	case RejectionParentNotFound:
		return fmt.Sprintf("parent event %s of %s not found for item", fmtID(e.ParentID), e.Kind)
	case RejectionInvalidParentKind:
		want, _ := e.Kind.RequiredParent()
		got := "<unknown>"
		if e.Conflicting != nil {
			got = e.Conflicting.Kind().String()
		}
		return fmt.Sprintf("parent event %s of %s is %s, want %s", fmtID(e.ParentID), e.Kind, got, want)
	}
	return fmt.Sprintf("%s rejected: %s", e.Kind, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

func fmtID(id *int64) string {
	if id == nil {
		return "<none>"
	}
	return fmt.Sprintf("%d", *id)
}

// StorageError is a failure of the underlying store or transaction.
// Unlike RejectionError it may be transient; callers decide whether to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// IsRetryable reports whether err is a storage failure worth retrying:
// a transaction conflict or a transient I/O failure, but not a missing
// record or a call the caller cancelled or let time out.
func IsRetryable(err error) bool {
	if !errors.Is(err, ErrStorage) {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownEventKind):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
