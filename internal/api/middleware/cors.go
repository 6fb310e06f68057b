package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const devOrigin = "http://localhost:3000"

// SecureCORS builds a CORS policy from the comma-separated origin list.
// Production deployments never get a wildcard origin, even if one is
// configured.
func SecureCORS(allowedOrigins, appEnv string) echo.MiddlewareFunc {
	origins := corsAllowlist(allowedOrigins, appEnv)

	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func corsAllowlist(allowedOrigins, appEnv string) []string {
	if allowedOrigins == "" {
		return []string{devOrigin}
	}

	strict := appEnv == "production"
	var origins []string
	for _, raw := range strings.Split(allowedOrigins, ",") {
		origin := strings.TrimSpace(raw)
		if origin == "" {
			continue
		}
		if strict && origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}

	if len(origins) == 0 {
		return []string{devOrigin}
	}
	return origins
}
