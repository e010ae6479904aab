package attendance

import (
	"errors"
	"fmt"
)

// Failure codes surfaced to callers. Every code carries a human-usable message;
// handlers never expose a bare code alone.
const (
	CodeClassNotFound        = "ClassNotFound"
	CodeScheduleMissing      = "ScheduleMissing"
	CodeSessionAlreadyExists = "SessionAlreadyExists"
	CodeInvalidPin           = "InvalidPin"
	CodePinExpired           = "PinExpired"
	CodeOutsideClassHours    = "OutsideClassHours"
	CodeWrongDay             = "WrongDay"
	CodeStudentNotFound      = "StudentNotFound"
	CodeNotEnrolled          = "NotEnrolled"
	CodeAlreadyMarked        = "AlreadyMarked"
	CodeInvalidDate          = "InvalidDate"

	// ReasonDuplicateForDate marks a per-item bulk skip, not a batch failure.
	ReasonDuplicateForDate = "DuplicateForDate"
)

// Error is a structured, non-fatal workflow failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func failf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a workflow *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrConflict is returned by stores when a uniqueness guard rejects a write.
// Services translate it into the appropriate workflow failure.
var ErrConflict = errors.New("conflicts with an existing row")
