package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/GriffinCanCode/webclient/internal/form"
	"github.com/GriffinCanCode/webclient/internal/mockapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	srv := mockapi.New("xoxb-test")
	base := srv.Start()
	t.Cleanup(srv.Close)
	return srv, base
}

func TestRestyURLEncoded(t *testing.T) {
	srv, base := newServer(t)

	exec, err := NewResty(DefaultOptions())
	require.NoError(t, err)
	defer exec.Close()

	body, err := form.Serialize(map[string]any{"token": "xoxb-test", "channel": "C1", "as_user": true})
	require.NoError(t, err)

	resp, err := exec.Execute(context.Background(), &Request{
		URL:    base + "chat.postMessage",
		Header: http.Header{"X-Trace-Id": {"trace-1"}},
		Body:   body,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"ok":true,"args":{"channel":"C1","as_user":"true"}}`, string(resp.Body))

	calls := srv.Calls("chat.postMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "application/x-www-form-urlencoded", calls[0].ContentType)
	assert.Equal(t, "trace-1", calls[0].Header.Get("X-Trace-Id"))
	assert.Equal(t, DefaultUserAgent, calls[0].Header.Get("User-Agent"))
}

func TestRestyMultipart(t *testing.T) {
	srv, base := newServer(t)

	exec, err := NewResty(Options{UserAgent: "custom/2.0"})
	require.NoError(t, err)

	body, err := form.Serialize(map[string]any{
		"token":    "xoxb-test",
		"channels": "C1",
		"title":    "report",
		"file":     []byte("col1,col2\n1,2\n"),
		"filename": "report.csv",
	})
	require.NoError(t, err)
	require.Equal(t, form.Multipart, body.Kind)

	resp, err := exec.Execute(context.Background(), &Request{URL: base + "files.upload", Body: body})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	calls := srv.Calls("files.upload")
	require.Len(t, calls, 1)
	assert.Equal(t, "multipart/form-data", calls[0].ContentType)
	assert.Equal(t, "custom/2.0", calls[0].Header.Get("User-Agent"))

	// Scalars survive the multipart round trip unchanged
	assert.Equal(t, "C1", calls[0].Fields["channels"])
	assert.Equal(t, "report", calls[0].Fields["title"])
	assert.Equal(t, "report.csv", calls[0].Fields["filename"])
	assert.Equal(t, "report.csv", calls[0].Files["file"].Filename)
	assert.Equal(t, []byte("col1,col2\n1,2\n"), calls[0].Files["file"].Content)
}

func TestRestyReturnsNonSuccessStatusWithoutError(t *testing.T) {
	srv, base := newServer(t)
	srv.Script("users.list", mockapi.Reply{Status: http.StatusInternalServerError, Raw: "upstream exploded"})

	exec, err := NewResty(DefaultOptions())
	require.NoError(t, err)

	resp, err := exec.Execute(context.Background(), &Request{URL: base + "users.list", Body: &form.Body{Fields: map[string]string{}}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "upstream exploded", string(resp.Body))
}

func TestRestyTransportFailure(t *testing.T) {
	srv, base := newServer(t)
	srv.Script("api.test", mockapi.Reply{Drop: true})

	exec, err := NewResty(DefaultOptions())
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), &Request{URL: base + "api.test"})
	assert.Error(t, err)
}

func TestRestyTimeout(t *testing.T) {
	srv, base := newServer(t)
	release := make(chan struct{})
	defer close(release)
	srv.OnCall(func(ctx context.Context, _ mockapi.Call) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	})

	exec, err := NewResty(Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), &Request{URL: base + "api.test"})
	assert.Error(t, err)
}

func TestRestyContextCancelled(t *testing.T) {
	_, base := newServer(t)

	exec, err := NewResty(DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exec.Execute(ctx, &Request{URL: base + "api.test"})
	assert.Error(t, err)
}

func TestNewRestyOptions(t *testing.T) {
	t.Run("rejects bad proxy scheme", func(t *testing.T) {
		_, err := NewResty(Options{ProxyURL: "ftp://proxy:21"})
		assert.Error(t, err)
	})

	t.Run("accepts http proxy and tls config", func(t *testing.T) {
		exec, err := NewResty(Options{
			ProxyURL: "http://proxy.internal:3128",
			TLS:      &tls.Config{MinVersion: tls.VersionTLS12},
			Headers:  map[string]string{"X-Extra": "1"},
		})
		require.NoError(t, err)
		assert.NotNil(t, exec)
	})
}

func TestExecutorFunc(t *testing.T) {
	var got *Request
	exec := ExecutorFunc(func(ctx context.Context, req *Request) (*Response, error) {
		got = req
		return &Response{Status: 200, Body: []byte(`{"ok":true}`)}, nil
	})

	resp, err := exec.Execute(context.Background(), &Request{URL: "http://example/api/x"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "http://example/api/x", got.URL)
}
