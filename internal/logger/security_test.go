package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedLogger returns a SecurityLogger writing JSON into the buffer.
func capturedLogger() (*SecurityLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil)), &buf
}

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewSecurityLogger(t *testing.T) {
	logger := NewSecurityLogger()
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.GetLogger())
}

func TestSecurityLogger_AuthFailure_JSONFormat(t *testing.T) {
	logger, buf := capturedLogger()

	logger.AuthFailure("192.168.1.1", "/api/test", "invalid_key")

	entry := parseEntry(t, buf)
	assert.Equal(t, "auth_failure", entry["event_type"])
	assert.Equal(t, "192.168.1.1", entry["ip"])
	assert.Equal(t, "/api/test", entry["path"])
	assert.Equal(t, "invalid_key", entry["reason"])
	assert.Contains(t, entry, "timestamp")
}

func TestSecurityLogger_WebhookRejected_JSONFormat(t *testing.T) {
	logger, buf := capturedLogger()

	logger.WebhookRejected("192.168.1.1", "missing_history_id")

	entry := parseEntry(t, buf)
	assert.Equal(t, "webhook_rejected", entry["event_type"])
	assert.Equal(t, "192.168.1.1", entry["ip"])
	assert.Equal(t, "missing_history_id", entry["reason"])
}

func TestSecurityLogger_InvalidOrigin(t *testing.T) {
	logger, buf := capturedLogger()

	logger.InvalidOrigin("192.168.1.1", "http://malicious.com")

	entry := parseEntry(t, buf)
	assert.Equal(t, "invalid_origin", entry["event_type"])
	assert.Equal(t, "http://malicious.com", entry["origin"])
}

func TestSecurityLogger_TokenRefreshFailure_NoTokenMaterial(t *testing.T) {
	logger, buf := capturedLogger()

	logger.TokenRefreshFailure("acct-42", "invalid_grant")

	entry := parseEntry(t, buf)
	assert.Equal(t, "token_refresh_failure", entry["event_type"])
	assert.Equal(t, "acct-42", entry["account_id"])
	assert.Equal(t, "invalid_grant", entry["reason"])
}

func TestSecurityLogger_SecurityEvent_FiltersSensitiveKeys(t *testing.T) {
	logger, buf := capturedLogger()

	logger.SecurityEvent("custom_event", "10.0.0.1", map[string]string{
		"detail":        "something happened",
		"password":      "hunter2",
		"access_token":  "ya29.secret",
		"refresh_token": "1//refresh",
		"api_key":       "key-value",
	})

	output := buf.String()
	assert.Contains(t, output, "something happened")
	assert.NotContains(t, output, "hunter2")
	assert.NotContains(t, output, "ya29.secret")
	assert.NotContains(t, output, "1//refresh")
	assert.NotContains(t, output, "key-value")
}

func TestSecurityLogger_InfoAndError(t *testing.T) {
	logger, buf := capturedLogger()

	logger.Info("info message", slog.String("key", "value"))
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "info message")
	assert.Contains(t, lines[1], "error message")
}

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"password", "api_key", "token", "access_token", "refresh_token", "secret", "cookie"}
	for _, key := range sensitive {
		assert.True(t, isSensitiveKey(key), "expected %q to be sensitive", key)
	}

	assert.False(t, isSensitiveKey("detail"))
	assert.False(t, isSensitiveKey("account_id"))
}
