package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/GriffinCanCode/webclient/internal/form"
)

// Request is one outbound call to the API.
type Request struct {
	Method string // HTTP method
	URL    string
	Header http.Header
	Body   *form.Body
}

// Response is what the executor got back, unparsed.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Executor performs a single HTTP exchange. A returned error means no
// response was obtained; any response, whatever its status, is returned
// with a nil error.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req *Request) (*Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Options are passed through to the underlying HTTP client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// ProxyURL routes requests through an http, https or socks5 proxy.
	ProxyURL string
	// TLS replaces the transport's TLS configuration.
	TLS *tls.Config
	// Headers are sent with every request.
	Headers map[string]string
}

// DefaultUserAgent identifies this library in the User-Agent header.
const DefaultUserAgent = "webclient-go/1.0"

// DefaultOptions returns production transport settings.
func DefaultOptions() Options {
	return Options{
		Timeout:   30 * time.Second,
		UserAgent: DefaultUserAgent,
	}
}
