package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytrack/backend/internal/infrastructure/auth"
	"github.com/paytrack/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		Issuer:          "test-issuer",
		ExpirationHours: 1,
	})
}

func issueToken(t *testing.T, jwtService *auth.JWTService) (token string, tenantID, userID uuid.UUID) {
	t.Helper()
	tenantID = uuid.New()
	userID = uuid.New()
	token, _, err := jwtService.GenerateToken(tenantID, userID)
	require.NoError(t, err)
	return token, tenantID, userID
}

// authRouter mounts the middleware in front of a handler that records
// the claims it sees.
func authRouter(mw gin.HandlerFunc) (*gin.Engine, *struct{ Claims *auth.Claims }) {
	gin.SetMode(gin.TestMode)
	seen := &struct{ Claims *auth.Claims }{}

	router := gin.New()
	router.Use(mw)
	router.GET("/billing/invoices", func(c *gin.Context) {
		seen.Claims = GetJWTClaims(c)
		c.Status(http.StatusOK)
	})
	return router, seen
}

func authRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(AuthHeaderKey, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, tenantID, userID := issueToken(t, jwtService)

	router, seen := authRouter(JWTAuthMiddleware(jwtService))
	w := authRequest(router, "/billing/invoices", "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen.Claims)
	assert.Equal(t, userID.String(), seen.Claims.UserID)
	assert.Equal(t, tenantID.String(), seen.Claims.TenantID)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()

	tests := []struct {
		name       string
		authHeader string
		wantCode   string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "UNAUTHORIZED"},
		{"empty token", "Bearer ", "UNAUTHORIZED"},
		{"garbage token", "Bearer not-a-jwt", "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, seen := authRouter(JWTAuthMiddleware(jwtService))
			w := authRequest(router, "/billing/invoices", tt.authHeader)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.Nil(t, seen.Claims)
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	expiredService := auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		Issuer:          "test-issuer",
		ExpirationHours: -1,
	})
	token, _, _ := issueToken(t, expiredService)

	router, _ := authRouter(JWTAuthMiddleware(expiredService))
	w := authRequest(router, "/billing/invoices", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_SkipLists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService := newTestJWTService()

	cfg := DefaultJWTConfig(jwtService)
	cfg.SkipPaths = append(cfg.SkipPaths, "/public")
	cfg.SkipPathPrefixes = append(cfg.SkipPathPrefixes, "/static")

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	for _, path := range []string{"/health", "/api/v1/health", "/public", "/static/logo.png"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range []string{"/health", "/api/v1/health", "/public", "/static/logo.png"} {
		t.Run(path, func(t *testing.T) {
			w := authRequest(router, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestJWTAuthMiddleware_ContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService := newTestJWTService()
	token, tenantID, userID := issueToken(t, jwtService)

	var gotUser, gotTenant string
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/billing/invoices", func(c *gin.Context) {
		gotUser = GetJWTUserID(c)
		gotTenant = GetJWTTenantID(c)
		c.Status(http.StatusOK)
	})

	w := authRequest(router, "/billing/invoices", "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), gotUser)
	assert.Equal(t, tenantID.String(), gotTenant)
}

func TestJWTAccessors_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Panics(t, func() { MustGetJWTClaims(c) })
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("no token passes without claims", func(t *testing.T) {
		router, seen := authRouter(OptionalJWTAuthMiddleware(jwtService))
		w := authRequest(router, "/billing/invoices", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, seen.Claims)
	})

	t.Run("valid token yields claims", func(t *testing.T) {
		token, _, userID := issueToken(t, jwtService)

		router, seen := authRouter(OptionalJWTAuthMiddleware(jwtService))
		w := authRequest(router, "/billing/invoices", "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen.Claims)
		assert.Equal(t, userID.String(), seen.Claims.UserID)
	})

	t.Run("invalid token passes without claims", func(t *testing.T) {
		router, seen := authRouter(OptionalJWTAuthMiddleware(jwtService))
		w := authRequest(router, "/billing/invoices", "Bearer not-a-jwt")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, seen.Claims)
	})
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService := newTestJWTService()

	called := false
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		called = true
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": "error"})
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/billing/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := authRequest(router, "/billing/invoices", "")

	assert.True(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
