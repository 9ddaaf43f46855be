/*
Package tracing provides lightweight request tracing.

Spans are linked by trace id and parent span id, propagated through the
X-Trace-ID and X-Span-ID headers on HTTP and through the trace id field of
WebSocket command frames. Finished spans are logged by a background
collector; there is no exporter.

# Usage

	tracer := tracing.New("navigator", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "navigator.push")
	defer tracer.Finish(span)
	span.SetTag("page_id", pageID)

	// outbound
	request.SetHeaders(tracing.Headers(ctx))
*/
package tracing
