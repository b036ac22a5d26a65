package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContext bundles a gin context with the recorder capturing its output.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext builds a context with a plain GET / request attached.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// NewJSONRequestContext builds a context carrying a JSON body.
func NewJSONRequestContext(t *testing.T, method, path string, body any) *TestContext {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetHeader sets a request header.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// SetContextValue stores a gin context key the way middleware would.
func (tc *TestContext) SetContextValue(key, value string) {
	tc.Context.Set(key, value)
}

// ResponseCode returns the recorded HTTP status.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// DecodeJSON parses the recorded body into a generic map.
func (tc *TestContext) DecodeJSON(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &out))
	return out
}

// AssertSuccessEnvelope checks the standard success envelope shape.
func AssertSuccessEnvelope(t *testing.T, tc *TestContext) {
	t.Helper()
	resp := tc.DecodeJSON(t)
	assert.Equal(t, true, resp["success"])
	assert.Nil(t, resp["error"])
}

// AssertErrorEnvelope checks the standard error envelope and its code.
func AssertErrorEnvelope(t *testing.T, tc *TestContext, wantCode string) {
	t.Helper()
	resp := tc.DecodeJSON(t)
	assert.Equal(t, false, resp["success"])

	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok, "error object missing from envelope")
	assert.Equal(t, wantCode, errObj["code"])
}
