package attendance

import (
	"errors"
	"fmt"
)

// Kind classifies why an attendance operation was rejected.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindDuplicateCheckIn  Kind = "DUPLICATE_CHECK_IN"
	KindNoOpenCheckIn     Kind = "NO_OPEN_CHECK_IN"
	KindAlreadyCheckedOut Kind = "ALREADY_CHECKED_OUT"
	KindValidationFailed  Kind = "VALIDATION_FAILED"
	KindLocationRejected  Kind = "LOCATION_REJECTED"
	KindSystemError       Kind = "SYSTEM_ERROR"
)

// Error is the typed rejection returned by check-in and check-out. It always carries a
// user-facing message and, where there is something the user can do, recommendations.
type Error struct {
	Kind            Kind
	Message         string
	Recommendations []string
	Fields          map[string]string
	Err             error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinel errors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of err, or KindSystemError when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSystemError
}

// Attendance domain errors
var (
	ErrUserNotFound      = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrDuplicateCheckIn  = &Error{Kind: KindDuplicateCheckIn, Message: "you have already checked in today"}
	ErrNoOpenCheckIn     = &Error{Kind: KindNoOpenCheckIn, Message: "you have not checked in today"}
	ErrAlreadyCheckedOut = &Error{Kind: KindAlreadyCheckedOut, Message: "you have already checked out today"}
	ErrValidationFailed  = &Error{Kind: KindValidationFailed, Message: "validation failed"}
	ErrLocationRejected  = &Error{Kind: KindLocationRejected, Message: "you are not at an office location"}
	ErrSystem            = &Error{Kind: KindSystemError, Message: "an unexpected error occurred, please try again"}

	// ErrRecordExists is returned by repositories when the (user, date) uniqueness
	// constraint rejects an insert.
	ErrRecordExists = errors.New("attendance record already exists for this date")
	// ErrRecordClosed is returned by repositories when a check-out update finds the
	// record already closed.
	ErrRecordClosed      = errors.New("attendance record already closed")
	ErrRecordNotFound    = errors.New("attendance record not found")
	ErrCheckInInProgress = errors.New("another check-in for this user is in progress")
)

// NewError builds a rejection of the given kind.
func NewError(kind Kind, message string, recommendations ...string) *Error {
	return &Error{Kind: kind, Message: message, Recommendations: recommendations}
}

// SystemError wraps an unexpected collaborator failure. The message stays generic; the
// cause is kept for logging.
func SystemError(err error) *Error {
	return &Error{Kind: KindSystemError, Message: ErrSystem.Message, Err: err}
}

// With returns a copy of e carrying the given recommendations, leaving e untouched.
func (e *Error) With(recommendations ...string) *Error {
	cp := *e
	cp.Recommendations = append([]string(nil), recommendations...)
	return &cp
}
