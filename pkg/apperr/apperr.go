// Package apperr defines the request-level error taxonomy shared by the
// validator, the relation manager and the HTTP handlers.
//
// Every error produced here wraps one of the Kind sentinels, so callers can
// branch with errors.Is without parsing messages:
//
//	if errors.Is(err, apperr.NotFound) { ... }
//
// Messages are meant for API clients and are returned verbatim in the
// {"error": message} response body.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind sentinels. They are compared with errors.Is.
var (
	MissingField  = errors.New("missing field")
	UnknownField  = errors.New("unknown field")
	InvalidFormat = errors.New("invalid format")
	MissingID     = errors.New("missing id")
	InvalidID     = errors.New("invalid id")
	NotFound      = errors.New("not found")
)

// Common client-facing messages.
const (
	MsgFieldsRequired   = "All fields must be filled"
	MsgNoID             = "No id specified"
	MsgIDNotInteger     = "Id must be integer"
	MsgRecordNotFound   = "Record with such id does not exist"
	MsgInvalidPayload   = "Invalid request payload"
	MsgRelationIDs      = "Both actor id and relation id must be specified"
	MsgRelationIntegers = "Both actor id and relation id must be integers"
)

// Error is a validation or lookup failure attributable to the request.
type Error struct {
	kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the Kind sentinel to errors.Is.
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns the sentinel this error belongs to.
func (e *Error) Kind() error {
	return e.kind
}

// New creates an Error of the given kind.
func New(kind error, field, message string) *Error {
	return &Error{kind: kind, Field: field, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind error, field, format string, args ...any) *Error {
	return New(kind, field, fmt.Sprintf(format, args...))
}

// Missing reports an absent or empty required field.
func Missing(field string) *Error {
	return Newf(MissingField, field, "%s: %s", MsgFieldsRequired, field)
}

// Unknown reports keys outside the entity whitelist.
func Unknown(fields ...string) *Error {
	if len(fields) == 1 {
		return Newf(UnknownField, fields[0], "Invalid field: %s", fields[0])
	}
	return Newf(UnknownField, strings.Join(fields, ","), "Invalid fields: %s", strings.Join(fields, ", "))
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRequestError reports whether err belongs to the taxonomy.
func IsRequestError(err error) bool {
	_, ok := As(err)
	return ok
}
