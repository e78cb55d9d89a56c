package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// Common domain errors
	ErrContactNotFound = errors.New("contact not found")
	ErrTagMissing      = errors.New("required tag not found for contact")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoSubscription  = errors.New("contact has no subscription")
	ErrMissingConfig   = errors.New("missing required configuration")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ErrorKind classifies a failure at the point it happens and carries the
// HTTP status the top-level handler must emit. This replaces the source
// system's substring matching on error messages while keeping the same
// observable status codes: CRM operation failures and validation map to
// 400, classification fetches, timeouts and anything unclassified to 500,
// auth to 401.
type ErrorKind int

const (
	KindUnhandled ErrorKind = iota
	KindAuthRejected
	KindValidationFailed
	KindCRMOperationFailed
	KindCRMFetchFailed
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthRejected:
		return "auth_rejected"
	case KindValidationFailed:
		return "validation_failed"
	case KindCRMOperationFailed:
		return "crm_operation_failed"
	case KindCRMFetchFailed:
		return "crm_fetch_failed"
	case KindTimeout:
		return "timeout"
	default:
		return "unhandled"
	}
}

// HTTPStatus returns the status code the response envelope carries for
// this kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindAuthRejected:
		return http.StatusUnauthorized
	case KindValidationFailed, KindCRMOperationFailed:
		return http.StatusBadRequest
	case KindCRMFetchFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is the uniform failure type surfaced by the CRM client and the
// orchestration layer. Op names the CRM operation ("Contact creation",
// "Tag registration", ...). CRMMessage holds the CRM-reported message
// verbatim when there is one.
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	CRMMessage string
	Status     int // upstream HTTP status for CRM failures, 0 otherwise
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// NewCRMFailure normalizes a non-2xx CRM response or a CRM-reported error
// body into a CRMOperationFailed error, mirroring the upstream message.
func NewCRMFailure(op, crmMessage string, status int) *Error {
	msg := crmMessage
	if msg == "" {
		msg = "Unknown error"
	}
	return &Error{
		Kind:       KindCRMOperationFailed,
		Op:         op,
		Message:    fmt.Sprintf("%s failed: %s (Status: %d)", op, msg, status),
		CRMMessage: crmMessage,
		Status:     status,
	}
}

// NewCRMFetchFailure marks a failed classification read (contact search,
// tags fetch). These surface as server-side failures rather than the 400
// an operation failure maps to.
func NewCRMFetchFailure(op, crmMessage string, status int) *Error {
	e := NewCRMFailure(op, crmMessage, status)
	e.Kind = KindCRMFetchFailed
	return e
}

// NewTimeout reports that op did not complete within budget.
func NewTimeout(op string, budget time.Duration) *Error {
	return &Error{
		Kind:    KindTimeout,
		Op:      op,
		Message: fmt.Sprintf("%s timed out after %dms", op, budget.Milliseconds()),
	}
}

// NewValidation reports a rejected inbound payload.
func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "Invalid payload: " + msg}
}

// KindOf extracts the kind from any error chain; unrecognized errors are
// Unhandled so they map to 500.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnhandled
}
