/*
Package tracing provides lightweight call tracing for debugging.

# Overview

Every API call gets a trace ID (a call ID) that follows it through queueing,
each HTTP attempt and every log line. Each attempt is a child span. The
trace is propagated to the server in headers so both sides can be matched.

# Usage

	tracer := tracing.New("webclient", logger)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(ctx, "chat.postMessage")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	tracing.InjectTraceContext(ctx, req.Header)

	// Server side
	router.Use(tracing.HTTPMiddleware(tracer))

# Trace Format

  - X-Trace-ID: identifier of the whole call
  - X-Span-ID: identifier of the current attempt

Completed spans are logged at debug level by a background collector with a
buffer of 1000 spans; when the buffer is full spans are dropped.
*/
package tracing
