package result

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/webclient/internal/apierror"
	"github.com/GriffinCanCode/webclient/internal/transport"
	"github.com/bytedance/sonic"
)

// Envelope keys merged from response headers.
const (
	ScopesKey         = "scopes"
	AcceptedScopesKey = "acceptedScopes"
	RetryAfterKey     = "retryAfter"
)

// RateLimitedError is the platform error string for rate limiting.
const RateLimitedError = "ratelimited"

// ResponseMetadata is the envelope's response_metadata object.
type ResponseMetadata struct {
	Warnings   []string
	NextCursor string
}

// Result is a successful call.
type Result struct {
	OK               bool
	Warning          string
	ResponseMetadata ResponseMetadata
	Scopes           []string
	AcceptedScopes   []string
	RetryAfter       time.Duration

	// Data is the full envelope with header-derived keys merged in.
	Data map[string]any
}

// Warnings returns the envelope's warning plus response_metadata.warnings.
func (r *Result) Warnings() []string {
	var out []string
	if r.Warning != "" {
		for _, w := range strings.Split(r.Warning, ",") {
			if w = strings.TrimSpace(w); w != "" {
				out = append(out, w)
			}
		}
	}
	return append(out, r.ResponseMetadata.Warnings...)
}

// Build classifies resp for method. It returns exactly one of a Result or an
// *apierror.Error.
func Build(method string, resp *transport.Response) (*Result, error) {
	retryAfter := parseRetryAfter(resp.Header)

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, apierror.NewHTTPError(resp.Status, resp.Header, resp.Body, retryAfter).WithMethod(method)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, apierror.NewReadError(errors.New("empty response body"), resp.Body).WithMethod(method)
	}

	var data map[string]any
	if err := sonic.ConfigStd.Unmarshal(resp.Body, &data); err != nil {
		return nil, apierror.NewReadError(err, resp.Body).WithMethod(method)
	}
	if data == nil {
		return nil, apierror.NewReadError(errors.New("response body is not a JSON object"), resp.Body).WithMethod(method)
	}

	if !truthy(data["ok"]) {
		if errCode, _ := data["error"].(string); errCode == RateLimitedError && retryAfter <= 0 {
			retryAfter = time.Second
		}
		return nil, apierror.NewPlatformError(data, retryAfter).WithMethod(method)
	}

	res := &Result{OK: true, Data: data, RetryAfter: retryAfter}
	res.Warning, _ = data["warning"].(string)
	res.ResponseMetadata = parseMetadata(data["response_metadata"])

	if scopes, ok := splitHeader(resp.Header, "X-OAuth-Scopes"); ok {
		res.Scopes = scopes
		data[ScopesKey] = scopes
	}
	if scopes, ok := splitHeader(resp.Header, "X-Accepted-OAuth-Scopes"); ok {
		res.AcceptedScopes = scopes
		data[AcceptedScopesKey] = scopes
	}
	if retryAfter > 0 {
		data[RetryAfterKey] = retryAfter.Seconds()
	}

	return res, nil
}

// truthy follows the envelope convention: true, non-zero numbers and
// non-empty strings other than "false"/"0" are success.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != "" && x != "false" && x != "0"
	default:
		return false
	}
}

// maxRetryAfterSeconds is the largest Retry-After that fits a Duration.
var maxRetryAfterSeconds = float64(math.MaxInt64) / float64(time.Second)

func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(secs) || secs <= 0 {
			return 0
		}
		if secs >= maxRetryAfterSeconds {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func splitHeader(h http.Header, key string) ([]string, bool) {
	if _, present := h[http.CanonicalHeaderKey(key)]; !present {
		return nil, false
	}
	out := []string{}
	for _, s := range strings.Split(h.Get(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func parseMetadata(v any) ResponseMetadata {
	m, ok := v.(map[string]any)
	if !ok {
		return ResponseMetadata{}
	}

	var md ResponseMetadata
	md.NextCursor, _ = m["next_cursor"].(string)
	if ws, ok := m["warnings"].([]any); ok {
		for _, w := range ws {
			if s, ok := w.(string); ok {
				md.Warnings = append(md.Warnings, s)
			}
		}
	}
	return md
}
