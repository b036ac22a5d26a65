package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installSpanRecorder swaps the global tracer provider for one backed
// by an in-memory recorder and restores the previous provider on
// cleanup. otelgin resolves the provider at middleware construction,
// so build routers after calling this.
func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})

	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := installSpanRecorder(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/billing/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/billing/invoices", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestTracingWithConfig_RecordsSpanPerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := installSpanRecorder(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "paytrack-test", Enabled: true}))
	router.GET("/billing/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/billing/invoices/abc-123", nil)
	req.Header.Set("X-Request-ID", "req-trace-9")
	router.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/billing/invoices/:id")

	val, ok := spanAttr(spans[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-trace-9", val.AsString())
}

func TestTracingAttributeInjector_JWTClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := installSpanRecorder(t)

	router := gin.New()
	router.Use(TracingWithConfig(DefaultTracingConfig()))
	// Stand-in for the JWT middleware populating claims.
	router.Use(func(c *gin.Context) {
		c.Set(JWTTenantIDKey, "b3f1c9d2-4a5e-4f6a-8b7c-1d2e3f4a5b6c")
		c.Set(JWTUserIDKey, "user-42")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/billing/payments", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/billing/payments", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	tenant, ok := spanAttr(spans[0], "tenant_id")
	require.True(t, ok)
	assert.Equal(t, "b3f1c9d2-4a5e-4f6a-8b7c-1d2e3f4a5b6c", tenant.AsString())

	user, ok := spanAttr(spans[0], "user_id")
	require.True(t, ok)
	assert.Equal(t, "user-42", user.AsString())
}

func TestTracingAttributeInjector_TenantHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(t *testing.T, header string) (sdktrace.ReadOnlySpan, bool) {
		recorder := installSpanRecorder(t)

		router := gin.New()
		router.Use(TracingWithConfig(DefaultTracingConfig()))
		router.Use(TracingAttributeInjector())
		router.GET("/billing/suppliers", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/billing/suppliers", nil)
		if header != "" {
			req.Header.Set("X-Tenant-ID", header)
		}
		router.ServeHTTP(w, req)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		val, ok := spanAttr(spans[0], "tenant_id")
		if !ok {
			return spans[0], false
		}
		assert.Equal(t, header, val.AsString())
		return spans[0], true
	}

	t.Run("valid UUID accepted", func(t *testing.T) {
		_, found := run(t, "550e8400-e29b-41d4-a716-446655440000")
		assert.True(t, found)
	})

	t.Run("non-UUID header dropped", func(t *testing.T) {
		_, found := run(t, "'; DROP TABLE invoices; --")
		assert.False(t, found)
	})

	t.Run("oversized header dropped", func(t *testing.T) {
		_, found := run(t, strings.Repeat("a", MaxTenantIDLength+1))
		assert.False(t, found)
	})
}

func TestSpanRequestID_TruncatesLongHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ping", nil)
	c.Request.Header.Set("X-Request-ID", strings.Repeat("r", MaxRequestIDLength+50))

	got := spanRequestID(c)
	assert.Len(t, got, MaxRequestIDLength)
}

func TestSpanErrorMarker(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(t *testing.T, status int) sdktrace.ReadOnlySpan {
		recorder := installSpanRecorder(t)

		router := gin.New()
		router.Use(TracingWithConfig(DefaultTracingConfig()))
		router.Use(SpanErrorMarker())
		router.GET("/billing/invoices", func(c *gin.Context) { c.Status(status) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/billing/invoices", nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		return spans[0]
	}

	t.Run("404 marks the span errored", func(t *testing.T) {
		span := serve(t, http.StatusNotFound)
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "Not Found", span.Status().Description)

		val, ok := spanAttr(span, "http.status_code")
		require.True(t, ok)
		assert.Equal(t, int64(http.StatusNotFound), val.AsInt64())
	})

	t.Run("401 and 403 carry their own message", func(t *testing.T) {
		assert.Equal(t, "Unauthorized", serve(t, http.StatusUnauthorized).Status().Description)
		assert.Equal(t, "Forbidden", serve(t, http.StatusForbidden).Status().Description)
	})

	t.Run("500 marks a server error", func(t *testing.T) {
		span := serve(t, http.StatusInternalServerError)
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "Internal Server Error", span.Status().Description)
	})

	t.Run("2xx leaves the span status alone", func(t *testing.T) {
		span := serve(t, http.StatusOK)
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})
}
