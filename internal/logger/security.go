// Package logger provides secure logging for the calendarit backend.
// Token material, API keys and other credentials never reach the log
// stream.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// redactedKeys are attribute names that may carry credential material.
// SecurityEvent silently drops them.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"api_key":       {},
	"apikey":        {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"secret":        {},
	"authorization": {},
	"auth":          {},
	"credential":    {},
	"credentials":   {},
	"session":       {},
	"cookie":        {},
}

// SecurityLogger emits structured security events.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger returns a SecurityLogger writing JSON to stdout.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &SecurityLogger{logger: slog.New(handler)}
}

// NewSecurityLoggerWithHandler wraps a custom handler, used by tests and
// by main to honor the configured log level.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler)}
}

func (s *SecurityLogger) emit(name string, attrs ...slog.Attr) {
	all := make([]any, 0, len(attrs)+2)
	all = append(all, slog.String("event_type", name))
	for _, a := range attrs {
		all = append(all, a)
	}
	all = append(all, slog.Time("timestamp", time.Now().UTC()))
	s.logger.Warn(name, all...)
}

// AuthFailure records a rejected API request. The presented credential is
// never logged.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.emit("auth_failure",
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason))
}

// WebhookRejected records a push notification that failed envelope
// validation. The payload itself is never logged.
func (s *SecurityLogger) WebhookRejected(ip, reason string) {
	s.emit("webhook_rejected",
		slog.String("ip", ip),
		slog.String("reason", reason))
}

// InvalidOrigin records a WebSocket upgrade rejected by the origin check.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.emit("invalid_origin",
		slog.String("ip", ip),
		slog.String("origin", origin))
}

// TokenRefreshFailure records a failed OAuth refresh. Only the account
// identifier is logged.
func (s *SecurityLogger) TokenRefreshFailure(accountID, reason string) {
	s.emit("token_refresh_failure",
		slog.String("account_id", accountID),
		slog.String("reason", reason))
}

// SecurityEvent records an ad-hoc security event with redaction applied
// to the detail keys.
func (s *SecurityLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := []slog.Attr{slog.String("ip", ip)}
	for k, v := range details {
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}
	s.emit(eventType, attrs...)
}

// Info logs an informational message.
func (s *SecurityLogger) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Error logs an error message.
func (s *SecurityLogger) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// GetLogger exposes the underlying slog.Logger for middleware wiring.
func (s *SecurityLogger) GetLogger() *slog.Logger {
	return s.logger
}

func isSensitiveKey(key string) bool {
	_, sensitive := redactedKeys[key]
	return sensitive
}
