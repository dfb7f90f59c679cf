package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationMiddleware propagates X-Correlation-ID across requests and
// into trace baggage so background work started from a request keeps
// the same business-transaction ID. Runs after RequestIDMiddleware,
// which it falls back to when the client sends no correlation header.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = c.GetString("request_id")
		}

		c.Set("correlation_id", correlationID)
		c.Header("X-Correlation-ID", correlationID)

		if correlationID != "" {
			span := trace.SpanFromContext(c.Request.Context())
			if span.IsRecording() {
				span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
			}

			if member, err := baggage.NewMember("correlation_id", correlationID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					c.Request = c.Request.WithContext(
						baggage.ContextWithBaggage(c.Request.Context(), bag))
				}
			}
		}

		c.Next()
	}
}

// SpanEnrichmentMiddleware records the final response state on the
// request span. Register it after the tracing middleware.
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
		case status == 404:
			// Routine lookups of missing resources are not errors
			span.SetStatus(codes.Unset, "not found")
		case status >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}

		if size := c.Writer.Size(); size > 0 {
			span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(size)))
		}
	}
}

// CorrelationIDFromContext reads the correlation ID out of trace
// baggage, for background tasks spawned from a request.
func CorrelationIDFromContext(ctx context.Context) string {
	for _, member := range baggage.FromContext(ctx).Members() {
		if member.Key() == "correlation_id" {
			return member.Value()
		}
	}
	return ""
}
