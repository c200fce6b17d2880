package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code identifies the kind of failure carried by an Error.
type Code string

const (
	// RequestError means the transport failed before any response was obtained.
	RequestError Code = "webclient_request_error"
	// HTTPError means a response arrived with a status outside 2xx.
	HTTPError Code = "webclient_http_error"
	// ReadError means the response body was not a JSON envelope.
	ReadError Code = "webclient_read_error"
	// PlatformError means the API answered ok:false.
	PlatformError Code = "webclient_platform_error"
	// Cancelled means the call was removed from the queue before admission.
	Cancelled Code = "webclient_cancelled"
	// InvalidArguments means the arguments could not be turned into a request body.
	InvalidArguments Code = "webclient_invalid_arguments"
)

// Sentinels for errors.Is matching on the kind only.
var (
	ErrRequest          = &Error{Code: RequestError}
	ErrHTTP             = &Error{Code: HTTPError}
	ErrRead             = &Error{Code: ReadError}
	ErrPlatform         = &Error{Code: PlatformError}
	ErrCancelled        = &Error{Code: Cancelled}
	ErrInvalidArguments = &Error{Code: InvalidArguments}
)

// Error is the single carrier for every failure the client reports.
// Which fields are populated depends on Code.
type Error struct {
	Code   Code
	Method string

	// Original is the underlying cause (transport error, parse error, cancel reason).
	Original error

	// Status, Header and Body describe the HTTP response, when there was one.
	Status int
	Header http.Header
	Body   []byte

	// Data is the decoded envelope of a PlatformError.
	Data map[string]any

	// RetryAfter is the server-declared wait; zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := "webclient"
	if e.Method != "" {
		prefix = fmt.Sprintf("webclient: %s", e.Method)
	}

	switch e.Code {
	case RequestError:
		return fmt.Sprintf("%s: request failed: %v", prefix, e.Original)
	case HTTPError:
		return fmt.Sprintf("%s: http status %d", prefix, e.Status)
	case ReadError:
		return fmt.Sprintf("%s: unreadable response: %v", prefix, e.Original)
	case PlatformError:
		return fmt.Sprintf("%s: platform error: %s", prefix, e.PlatformCode())
	case Cancelled:
		if e.Original != nil {
			return fmt.Sprintf("%s: cancelled: %v", prefix, e.Original)
		}
		return prefix + ": cancelled"
	case InvalidArguments:
		return fmt.Sprintf("%s: invalid arguments: %v", prefix, e.Original)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Code)
	}
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Original
}

// Is reports whether target is an *Error with the same Code. It lets callers
// write errors.Is(err, apierror.ErrPlatform).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// PlatformCode returns the remote error string of a PlatformError.
func (e *Error) PlatformCode() string {
	if e.Data == nil {
		return ""
	}
	s, _ := e.Data["error"].(string)
	return s
}

// RateLimited reports whether the remote asked the caller to wait.
func (e *Error) RateLimited() bool {
	return e.RetryAfter > 0
}

// WithMethod returns a copy of e tagged with the method name.
func (e *Error) WithMethod(method string) *Error {
	c := *e
	c.Method = method
	return &c
}

// NewRequestError wraps a transport failure.
func NewRequestError(cause error) *Error {
	return &Error{Code: RequestError, Original: cause}
}

// NewHTTPError records a non-success status.
func NewHTTPError(status int, header http.Header, body []byte, retryAfter time.Duration) *Error {
	return &Error{
		Code:       HTTPError,
		Status:     status,
		Header:     header,
		Body:       body,
		RetryAfter: retryAfter,
		Original:   fmt.Errorf("%d %s", status, http.StatusText(status)),
	}
}

// NewReadError records a body that could not be parsed.
func NewReadError(cause error, body []byte) *Error {
	return &Error{Code: ReadError, Original: cause, Body: body}
}

// NewPlatformError records an ok:false envelope.
func NewPlatformError(data map[string]any, retryAfter time.Duration) *Error {
	return &Error{Code: PlatformError, Data: data, RetryAfter: retryAfter}
}

// NewCancelled records removal from the queue.
func NewCancelled(reason error) *Error {
	return &Error{Code: Cancelled, Original: reason}
}

// NewInvalidArguments records an argument map that cannot be serialized.
func NewInvalidArguments(cause error) *Error {
	return &Error{Code: InvalidArguments, Original: cause}
}

// InvalidArgumentf is a convenience over NewInvalidArguments.
func InvalidArgumentf(format string, args ...any) *Error {
	return NewInvalidArguments(fmt.Errorf(format, args...))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the Code of err, or "" when err carries none.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}
