// Package mockapi is a gin-based stand-in for the Web API.
//
// It serves POST /api/{method}, records every call (form fields, uploaded
// files, headers) and answers either from per-method scripted replies or
// with a default envelope: ok:true echoing the arguments, or not_authed /
// invalid_auth when the token is missing or wrong.
//
// Used by package tests and by `webapi serve-mock`. WithMiddleware installs
// gin middleware (metrics, tracing, throttling) ahead of every route and
// WithHandler mounts extra GET endpoints such as /metrics.
//
// Example Usage:
//
//	srv := mockapi.New("xoxb-test")
//	base := srv.Start()
//	defer srv.Close()
//	srv.Script("chat.postMessage", mockapi.Reply{Status: 429, Header: map[string]string{"Retry-After": "1"}})
package mockapi
