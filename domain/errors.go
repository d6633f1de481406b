package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ValidationErrorKind    ErrorKind = "validation"
	FormatErrorKind        ErrorKind = "format"
	SchemaErrorKind        ErrorKind = "schema"
	ParseErrorKind         ErrorKind = "parse"
	ConfigurationErrorKind ErrorKind = "configuration"
	UpstreamErrorKind      ErrorKind = "upstream"
	ProtocolErrorKind      ErrorKind = "protocol"
	NotFoundErrorKind      ErrorKind = "not_found"
	CancelledErrorKind     ErrorKind = "cancelled"
)

// Error is the structured failure returned by every operation. Op names the
// operation that failed, Status carries the upstream HTTP status when the
// failure came from a remote capability.
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Op     string    `json:"op,omitempty"`
	Detail string    `json:"detail"`
	Status int       `json:"status,omitempty"`
	Err    error     `json:"-"`
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: ValidationErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewFormatError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: FormatErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewSchemaError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: SchemaErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewParseError(op string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: ParseErrorKind, Op: op, Detail: fmt.Sprintf(format, args...), Err: err}
}

func NewConfigurationError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: ConfigurationErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewUpstreamError(op string, status int, detail string, err error) *Error {
	return &Error{Kind: UpstreamErrorKind, Op: op, Status: status, Detail: detail, Err: err}
}

func NewProtocolError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: ProtocolErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: NotFoundErrorKind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NewCancelledError(op string, err error) *Error {
	return &Error{Kind: CancelledErrorKind, Op: op, Detail: "campaign cancelled before this customer started", Err: err}
}

// AsError returns the structured error in err's chain. Errors that carry no
// kind are reported as upstream failures so callers never see an unkinded
// failure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: UpstreamErrorKind, Detail: err.Error(), Err: err}
}

func KindOf(err error) ErrorKind {
	if e := AsError(err); e != nil {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsValidation reports whether err is a local input failure. Ingestion's
// format, schema and parse failures are all validation failures.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case ValidationErrorKind, FormatErrorKind, SchemaErrorKind, ParseErrorKind:
		var e *Error
		return errors.As(err, &e)
	}
	return false
}
