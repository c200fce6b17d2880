package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/GriffinCanCode/webclient/internal/form"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Resty executes requests with go-resty over a pooled transport.
// Retries are disabled at this layer; the caller owns the retry loop.
type Resty struct {
	client *resty.Client
	mu     sync.RWMutex
}

// NewResty creates an executor from opts.
func NewResty(opts Options) (*Resty, error) {
	// Pooled keep-alive transport from go-retryablehttp (cleanhttp)
	pool := retryablehttp.NewClient()
	pool.Logger = nil

	client := resty.New().
		SetTransport(pool.HTTPClient.Transport).
		SetRetryCount(0)

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)

	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	if opts.ProxyURL != "" {
		parsed, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		switch parsed.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("proxy URL must use http, https or socks5 scheme, got %q", parsed.Scheme)
		}
		client.SetProxy(opts.ProxyURL)
	}

	if opts.TLS != nil {
		client.SetTLSClientConfig(opts.TLS)
	}

	return &Resty{client: client}, nil
}

// Execute sends req and returns the raw response.
func (r *Resty) Execute(ctx context.Context, req *Request) (*Response, error) {
	r.mu.RLock()
	rr := r.client.R().SetContext(ctx)
	r.mu.RUnlock()

	for k, values := range req.Header {
		for _, v := range values {
			rr.Header.Add(k, v)
		}
	}

	if req.Body != nil {
		switch req.Body.Kind {
		case form.Multipart:
			rr.SetMultipartFormData(req.Body.Fields)
			for _, f := range req.Body.Files {
				rr.SetMultipartField(f.Field, f.Filename, f.ContentType, bytes.NewReader(f.Content))
			}
		default:
			rr.SetFormData(req.Body.Fields)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status: resp.StatusCode(),
		Header: resp.Header(),
		Body:   resp.Body(),
	}, nil
}

// Close releases idle connections.
func (r *Resty) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client.GetClient().CloseIdleConnections()
	return nil
}
