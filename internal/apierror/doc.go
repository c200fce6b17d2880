// Package apierror defines the closed set of failures reported by the client.
//
// Every failure is an *Error whose Code names its kind:
//   - RequestError: no response was obtained (DNS, TLS, reset, timeout)
//   - HTTPError: a response arrived with a non-2xx status
//   - ReadError: the body was not a JSON envelope
//   - PlatformError: the API answered ok:false
//   - Cancelled: the call never left the queue
//   - InvalidArguments: the arguments could not be serialized
//
// Example Usage:
//
//	if errors.Is(err, apierror.ErrPlatform) {
//		e, _ := apierror.As(err)
//		log.Println(e.PlatformCode())
//	}
package apierror
