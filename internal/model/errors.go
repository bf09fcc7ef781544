package model

import "fmt"

// ErrorKind classifies a workflow failure. The transport boundary maps
// each kind to an HTTP status and never leaks internal detail.
type ErrorKind int

const (
	KindValidation ErrorKind = iota // 400
	KindUnauthorized                // 401
	KindForbidden                   // 403
	KindNotFound                    // 404
	KindConflict                    // 409
	KindInternal                    // 500
)

// Error is the typed failure returned by workflow operations.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func UnauthorizedError(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func ForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func ConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// InternalError wraps an unexpected dependency failure. The cause is
// logged server-side; clients only see the generic message.
func InternalError(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", cause: cause}
}
