package webclient

import (
	"github.com/GriffinCanCode/webclient/internal/apierror"
	"github.com/GriffinCanCode/webclient/internal/form"
	"github.com/GriffinCanCode/webclient/internal/result"
	"github.com/GriffinCanCode/webclient/internal/retry"
	"github.com/GriffinCanCode/webclient/internal/transport"
)

// Result is a successful call: the JSON envelope with ok:true plus the
// scopes and retry-after hints taken from response headers.
type Result = result.Result

// ResponseMetadata is the envelope's response_metadata object.
type ResponseMetadata = result.ResponseMetadata

// Error is returned by every failed call. Use errors.Is with the Err*
// sentinels, or inspect Code.
type Error = apierror.Error

// ErrorCode tags the kind of an Error.
type ErrorCode = apierror.Code

// Error codes.
const (
	RequestError     = apierror.RequestError
	HTTPError        = apierror.HTTPError
	ReadError        = apierror.ReadError
	PlatformError    = apierror.PlatformError
	Cancelled        = apierror.Cancelled
	InvalidArguments = apierror.InvalidArguments
)

// Sentinels for errors.Is.
var (
	ErrRequest          = apierror.ErrRequest
	ErrHTTP             = apierror.ErrHTTP
	ErrRead             = apierror.ErrRead
	ErrPlatform         = apierror.ErrPlatform
	ErrCancelled        = apierror.ErrCancelled
	ErrInvalidArguments = apierror.ErrInvalidArguments
)

// File is a binary argument with an explicit filename and content type.
type File = form.File

// RetryPolicy decides whether a failed attempt is retried.
type RetryPolicy = retry.Policy

// Retry presets.
var (
	DefaultRetryPolicy             = retry.Default
	NoRetries                      = retry.None
	FiveRetriesInFiveMinutes       = retry.FiveRetriesInFiveMinutes
	TenRetriesInAboutThirtyMinutes = retry.TenRetriesInAboutThirtyMinutes
	RapidRetry                     = retry.RapidRetry
)

// TransportOptions are passed through to the HTTP executor.
type TransportOptions = transport.Options

// Executor performs one HTTP exchange. Supply one in Config to replace the
// default resty-based transport.
type Executor = transport.Executor

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc = transport.ExecutorFunc

// HTTPRequest is what an Executor is asked to send.
type HTTPRequest = transport.Request

// HTTPResponse is what an Executor returns.
type HTTPResponse = transport.Response

// Outcome is the value delivered by APICallAsync. Exactly one of Result and
// Err is set.
type Outcome struct {
	Result *Result
	Err    error
}
