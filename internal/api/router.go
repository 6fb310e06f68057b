// Package api assembles the HTTP surface: response envelopes, middleware
// and route registration.
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	apimw "github.com/alexey192/calendarit/internal/api/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health       HealthRoutes
	Subscription SubscriptionRoutes
	Notification NotificationRoutes
	Event        EventRoutes
	WS           WSRoutes
}

// HealthRoutes is the health-probe handler surface
type HealthRoutes interface {
	Health(c echo.Context) error
	Ready(c echo.Context) error
}

// SubscriptionRoutes is the watch-registration handler surface
type SubscriptionRoutes interface {
	Subscribe(c echo.Context) error
}

// NotificationRoutes is the push-webhook handler surface
type NotificationRoutes interface {
	HandleGmail(c echo.Context) error
}

// EventRoutes is the persisted-event handler surface
type EventRoutes interface {
	ListByUser(c echo.Context) error
	MarkSeen(c echo.Context) error
}

// WSRoutes is the live-notification handler surface
type WSRoutes interface {
	Connect(c echo.Context) error
}

// RouterConfig holds middleware inputs for the router
type RouterConfig struct {
	APIKey         string
	AllowedOrigins string
	AppEnv         string
	Logger         *slog.Logger
}

// RegisterRoutes mounts the middleware chain and all routes on the echo
// instance. Unknown methods on known paths get echo's default 405.
func RegisterRoutes(e *echo.Echo, h Handlers, cfg RouterConfig) {
	e.Use(apimw.Recover())
	e.Use(apimw.RequestLogger(cfg.Logger))
	e.Use(apimw.SecureHeaders())
	e.Use(apimw.SecureCORS(cfg.AllowedOrigins, cfg.AppEnv))
	e.Use(apimw.APIKeyAuth(cfg.APIKey, cfg.Logger))

	e.GET("/health", h.Health.Health)
	e.GET("/ready", h.Health.Ready)

	e.POST("/notifications/gmail", h.Notification.HandleGmail)

	e.POST("/api/subscriptions", h.Subscription.Subscribe)
	e.GET("/api/users/:uid/events", h.Event.ListByUser)
	e.PATCH("/api/events/:id/seen", h.Event.MarkSeen)

	e.GET("/ws", h.WS.Connect)
}
