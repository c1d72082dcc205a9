package errors

import (
	"fmt"
	"time"
)

// Kind classifies a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindMalformed
	KindTimeout
	KindConnectionFailure
	KindHTTPStatusFailure
	KindRequestFailure
	KindCycleDetected
	KindInvalidArgument
)

func (kind Kind) String() string {
	switch kind {
	case KindNotFound:
		return "NotFound"
	case KindMalformed:
		return "Malformed"
	case KindTimeout:
		return "Timeout"
	case KindConnectionFailure:
		return "ConnectionFailure"
	case KindHTTPStatusFailure:
		return "HTTPStatusFailure"
	case KindRequestFailure:
		return "RequestFailure"
	case KindCycleDetected:
		return "CycleDetected"
	case KindInvalidArgument:
		return "InvalidArgument"
	}

	return "Unknown"
}

// Sentinels for errors.Is. They must not be mutated.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrMalformed         = &Error{Kind: KindMalformed}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrConnectionFailure = &Error{Kind: KindConnectionFailure}
	ErrHTTPStatusFailure = &Error{Kind: KindHTTPStatusFailure}
	ErrRequestFailure    = &Error{Kind: KindRequestFailure}
	ErrCycleDetected     = &Error{Kind: KindCycleDetected}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
)

/*
NotFound reports a schema file that does not exist.
*/
func NotFound(source string, cause error) *Error {
	err := NewError(KindNotFound, fmt.Sprintf("schema %s not found", source), cause)
	err.Source = source
	return err
}

/*
Malformed reports a JSON document that failed to parse. Position fields are
zero when the decoder gave none.
*/
func Malformed(source string, offset int64, line, column int, cause error) *Error {
	msg := fmt.Sprintf("failed to parse JSON from %s", source)

	if offset > 0 || line > 0 {
		msg = fmt.Sprintf("%s at line %d, column %d (offset %d)", msg, line, column, offset)
	}

	err := NewError(KindMalformed, msg, cause)
	err.Source = source
	err.Offset = offset
	err.Line = line
	err.Column = column
	return err
}

/*
Timeout reports a request that ran past its effective timeout.
*/
func Timeout(url string, timeout time.Duration, cause error) *Error {
	err := NewError(KindTimeout, fmt.Sprintf("request to %s timed out after %s", url, timeout), cause)
	err.URL = url
	err.Timeout = timeout
	return err
}

/*
ConnectionFailure reports a transport that could not establish or finish the
connection.
*/
func ConnectionFailure(url string, cause error) *Error {
	err := NewError(KindConnectionFailure, fmt.Sprintf("failed to connect to %s", url), cause)
	err.URL = url
	return err
}

/*
HTTPStatusFailure reports a 4xx/5xx response. body is the response text, or
a placeholder when it could not be read.
*/
func HTTPStatusFailure(url string, status int, body string) *Error {
	err := NewError(KindHTTPStatusFailure, fmt.Sprintf("HTTP %d error for %s: %s", status, url, body))
	err.URL = url
	err.StatusCode = status
	err.Body = body
	return err
}

/*
RequestFailure is the catch-all for transport errors that are neither
timeouts nor connection failures.
*/
func RequestFailure(url string, cause error) *Error {
	msg := fmt.Sprintf("request to %s failed", url)
	err := NewError(KindRequestFailure, msg, cause)
	err.URL = url
	return err
}

/*
CycleDetected reports a local $ref chain that loops back on itself. Only
returned by resolvers running in strict mode.
*/
func CycleDetected(source, ref string) *Error {
	err := NewError(KindCycleDetected, fmt.Sprintf("cyclic $ref %s in %s", ref, source))
	err.Source = source
	return err
}

/*
InvalidArgument reports a tool argument that is missing or of the wrong
type. It is raised before any request is made.
*/
func InvalidArgument(tool, param, reason string) *Error {
	err := NewError(KindInvalidArgument, fmt.Sprintf("invalid argument %s for %s: %s", param, tool, reason))
	err.Source = tool
	return err
}
