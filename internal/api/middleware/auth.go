package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// exemptPrefixes lists routes the API-key gate skips: health probes and
// the push webhook (validated by envelope shape). The WebSocket endpoint
// is gated like the rest of the UI surface; without it any connection
// could subscribe to any user's event stream.
var exemptPrefixes = []string{"/health", "/ready", "/notifications"}

// APIKeyAuth gates the UI-facing API behind a bearer API key, compared
// in constant time. An empty configured key disables the gate; that is
// the development mode and it is logged loudly.
func APIKeyAuth(validAPIKey string, logger *slog.Logger) echo.MiddlewareFunc {
	if validAPIKey == "" && logger != nil {
		logger.Warn("API_KEY not set - API is UNSECURED")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if validAPIKey == "" || isExemptPath(path) {
				return next(c)
			}

			presented := bearerToken(c.Request().Header.Get("Authorization"))
			if presented == "" {
				return deny(c, logger, path, "missing authorization header")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(validAPIKey)) != 1 {
				return deny(c, logger, path, "invalid API key")
			}

			return next(c)
		}
	}
}

func isExemptPath(path string) bool {
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// bearerToken accepts both "Bearer <key>" and a bare key.
func bearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func deny(c echo.Context, logger *slog.Logger, path, reason string) error {
	if logger != nil {
		logger.Warn("rejected API request",
			slog.String("ip", c.RealIP()),
			slog.String("path", path),
			slog.String("reason", reason))
	}
	return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
		"error": reason,
		"code":  "UNAUTHORIZED",
	})
}
