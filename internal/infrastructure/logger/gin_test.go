package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func performRequest(handler gin.HandlerFunc, middleware ...gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/billing/invoices", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/billing/invoices?page=2", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs completed request at info", func(t *testing.T) {
		log, logs := newObservedLogger()

		performRequest(func(c *gin.Context) {
			c.Status(http.StatusOK)
		}, GinMiddleware(log))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "HTTP Request", entries[0].Message)

		fields := entries[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/billing/invoices", fields["path"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, "page=2", fields["query"])
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		log, logs := newObservedLogger()

		performRequest(func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		}, GinMiddleware(log))

		require.Len(t, logs.All(), 1)
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("server errors log at error", func(t *testing.T) {
		log, logs := newObservedLogger()

		performRequest(func(c *gin.Context) {
			c.Status(http.StatusBadGateway)
		}, GinMiddleware(log))

		require.Len(t, logs.All(), 1)
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("gin errors are collected", func(t *testing.T) {
		log, logs := newObservedLogger()

		performRequest(func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		}, GinMiddleware(log))

		fields := logs.All()[0].ContextMap()
		require.Contains(t, fields, "errors")
	})

	t.Run("request id from earlier middleware is attached", func(t *testing.T) {
		log, logs := newObservedLogger()

		setRequestID := func(c *gin.Context) {
			c.Set("request_id", "req-55")
			c.Next()
		}
		performRequest(func(c *gin.Context) {
			c.Status(http.StatusOK)
		}, setRequestID, GinMiddleware(log))

		assert.Equal(t, "req-55", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGetGinLogger(t *testing.T) {
	t.Run("returns the request-scoped logger", func(t *testing.T) {
		log, _ := newObservedLogger()

		var got *zap.Logger
		performRequest(func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		}, GinMiddleware(log))

		require.NotNil(t, got)
		assert.NotEqual(t, zap.NewNop(), got)
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		got := GetGinLogger(c)
		require.NotNil(t, got)
		got.Info("safe to call")
	})
}

func TestRecovery(t *testing.T) {
	log, logs := newObservedLogger()

	w := performRequest(func(c *gin.Context) {
		panic("payment handler blew up")
	}, Recovery(log))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Panic recovered", entries[0].Message)
	assert.Equal(t, "payment handler blew up", entries[0].ContextMap()["error"])
}
