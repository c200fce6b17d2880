// Package transport performs the HTTP exchange for a serialized call.
//
// Executor is the seam between the request pipeline and the network. The
// default implementation, Resty, is built on go-resty/resty over the pooled
// keep-alive transport that go-retryablehttp provides. Proxy and TLS settings
// are passed through unchanged.
//
// Any failure to obtain a response (DNS, TLS, reset, timeout, cancelled
// context) is returned as an error. Every response, whatever its status, is
// returned to the caller for classification.
package transport
