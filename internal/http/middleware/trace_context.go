package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	ctxTraceID   = "trace_id"
	ctxRequestID = "request_id"
)

// AttachTraceContext resolves a trace id for log correlation. Order: active span,
// incoming W3C traceparent, X-Trace-Id, then a fresh id. Request ids are echoed or minted.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sc := trace.SpanContextFromContext(ctx)
		if !sc.HasTraceID() {
			ctx = propagation.TraceContext{}.Extract(ctx, propagation.HeaderCarrier(c.Request.Header))
			sc = trace.SpanContextFromContext(ctx)
			c.Request = c.Request.WithContext(ctx)
		}

		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Set(ctxTraceID, traceID)
		c.Set(ctxRequestID, reqID)
		h := c.Writer.Header()
		h.Set(headerTraceID, traceID)
		h.Set(headerRequestID, reqID)
		c.Next()
	}
}
