// Package webclient calls Web API methods: POST {base}/{method} with a form
// body, answered by a JSON envelope {"ok": bool, ...}.
//
// Every call goes through the same pipeline. Arguments are serialized to a
// URL-encoded or multipart body, the call waits in a FIFO queue for one of
// MaxConcurrency slots, and the HTTP exchange is retried under a RetryPolicy.
// The response is classified into a Result or an *Error whose Code is one of
// RequestError, HTTPError, ReadError or PlatformError (plus Cancelled and
// InvalidArguments for calls that never reached the network).
//
//	client, err := webclient.New(os.Getenv("WEBAPI_TOKEN"), webclient.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	res, err := client.APICall(ctx, "chat.postMessage", map[string]any{
//		"channel": "C123",
//		"text":    "hello",
//	})
//	if errors.Is(err, webclient.ErrPlatform) {
//		// the API answered ok:false
//	}
//
// APICallAsync and APICallWithCallback deliver the same outcome over a
// channel or a callback.
package webclient
