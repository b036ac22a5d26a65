// Package middleware provides HTTP middleware for the PayTrack API.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Length caps for identifiers lifted from request headers. Anything
// longer is attacker-controlled noise, not an ID.
const (
	MaxRequestIDLength = 128
	MaxTenantIDLength  = 64
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig configures the request tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns the tracing defaults.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "paytrack-backend",
		Enabled:     true,
	}
}

// Tracing returns the OpenTelemetry tracing middleware with defaults.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin so every request gets a span named
// after its route pattern, then annotates the span with request_id,
// tenant_id and user_id where those are known.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	base := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateRequestSpan(c, span)
		}
	}
}

func annotateRequestSpan(c *gin.Context, span trace.Span) {
	if id := spanRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if id := spanTenantID(c); id != "" {
		span.SetAttributes(attribute.String("tenant_id", id))
	}
	if id := spanUserID(c); id != "" {
		span.SetAttributes(attribute.String("user_id", id))
	}
}

func spanRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// spanTenantID prefers the authenticated tenant from JWT claims. The
// X-Tenant-ID header is only trusted when it looks like a UUID, so a
// caller cannot inject arbitrary text into trace attributes.
func spanTenantID(c *gin.Context) string {
	if id := c.GetString(JWTTenantIDKey); id != "" {
		return id
	}
	headerID := c.GetHeader("X-Tenant-ID")
	if headerID != "" && len(headerID) <= MaxTenantIDLength && uuidPattern.MatchString(headerID) {
		return headerID
	}
	return ""
}

func spanUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// SpanErrorMarker marks the request span as errored for 4xx and 5xx
// responses. Place it after the Tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		msg := http.StatusText(status)
		if msg == "" {
			if status >= http.StatusInternalServerError {
				msg = "Server Error"
			} else {
				msg = "Client Error"
			}
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

// TracingAttributeInjector re-annotates the span once authentication
// middleware has populated JWT claims. Place it after both Tracing and
// the JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			annotateRequestSpan(c, span)
		}
		c.Next()
	}
}
