package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAuth(t *testing.T, apiKey, authHeader, path string) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	handler := APIKeyAuth(apiKey, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return handler(c)
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	err := runAuth(t, "secret-key", "Bearer secret-key", "/api/subscriptions")
	assert.NoError(t, err)
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	err := runAuth(t, "secret-key", "Bearer wrong-key", "/api/subscriptions")

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	err := runAuth(t, "secret-key", "", "/api/subscriptions")

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyAuth_NoKeyConfiguredAllowsAll(t *testing.T) {
	err := runAuth(t, "", "", "/api/subscriptions")
	assert.NoError(t, err)
}

func TestAPIKeyAuth_ExemptPaths(t *testing.T) {
	exempt := []string{"/health", "/ready", "/notifications/gmail"}

	for _, path := range exempt {
		t.Run(path, func(t *testing.T) {
			err := runAuth(t, "secret-key", "", path)
			assert.NoError(t, err)
		})
	}
}

func TestAPIKeyAuth_WebSocketRequiresKey(t *testing.T) {
	err := runAuth(t, "secret-key", "", "/ws")

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	assert.NoError(t, runAuth(t, "secret-key", "Bearer secret-key", "/ws"))
}

func TestAPIKeyAuth_BearerPrefixOptional(t *testing.T) {
	// A bare token without the Bearer prefix still compares
	err := runAuth(t, "secret-key", "secret-key", "/api/subscriptions")
	assert.NoError(t, err)
}

func TestSecureHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := SecureHeaders()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	// No HSTS over plain HTTP
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
