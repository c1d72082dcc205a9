package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

/*
Error is the single failure type surfaced by the schema resolver and the
HTTP client. Kind classifies the failure, the remaining fields carry the
context that was layered onto the original cause.
*/
type Error struct {
	Kind       Kind
	URL        string
	Source     string
	StatusCode int
	Body       string
	Timeout    time.Duration
	Offset     int64
	Line       int
	Column     int
	Errs       []error
	Msgs       []any
}

/*
NewError builds an Error of the given kind. Any error in the arguments is
kept as a cause, strings become messages.
*/
func NewError(kind Kind, args ...any) *Error {
	err := &Error{Kind: kind}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case error:
			err.Errs = append(err.Errs, v)
		case string:
			err.Msgs = append(err.Msgs, v)
		default:
			err.Msgs = append(err.Msgs, v)
		}
	}

	return err
}

func (err *Error) Error() string {
	builder := &strings.Builder{}

	for i, msg := range err.Msgs {
		if i > 0 {
			builder.WriteString(": ")
		}

		builder.WriteString(fmt.Sprintf("%v", msg))
	}

	if builder.Len() == 0 {
		builder.WriteString(err.Kind.String())
	}

	for _, cause := range err.Errs {
		builder.WriteString(": ")
		builder.WriteString(cause.Error())
	}

	return builder.String()
}

func (err *Error) Unwrap() []error {
	return err.Errs
}

/*
Is matches any *Error of the same kind, which makes the Err* sentinels usable
with errors.Is.
*/
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	return t.Kind == err.Kind
}

/*
KindOf returns the kind of the first *Error found in the chain of err, or
KindUnknown.
*/
func KindOf(err error) Kind {
	var e *Error

	if stderrors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

/*
As is a thin alias of the standard library helper so callers importing this
package under its own name do not also need the standard errors package.
*/
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

/*
Is mirrors the standard library helper for the same reason as As.
*/
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
