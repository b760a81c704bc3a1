package http

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/ext"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Tracing opens a server span per request and hands its context to the handlers.
// Without a running tracer the spans are no-ops.
func Tracing(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracer.StartSpanFromContext(c.Request.Context(), "http.request",
			tracer.ServiceName(service),
			tracer.SpanType(ext.SpanTypeWeb),
			tracer.Tag(ext.HTTPMethod, c.Request.Method),
			tracer.Tag(ext.HTTPURL, c.Request.URL.Path),
		)
		defer span.Finish()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetTag(ext.ResourceName, c.Request.Method+" "+route(c))
		span.SetTag(ext.HTTPCode, strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetTag(ext.Error, c.Errors.Last())
		}
	}
}

func WithSpan(ctx context.Context, name string, fn func(ctx context.Context)) {
	span, ctx2 := tracer.StartSpanFromContext(ctx, name)
	defer span.Finish()
	fn(ctx2)
}
