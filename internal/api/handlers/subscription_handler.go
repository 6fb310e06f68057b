package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/alexey192/calendarit/internal/api"
	apperrors "github.com/alexey192/calendarit/internal/errors"
	"github.com/alexey192/calendarit/internal/services"
)

// SubscriptionHandler handles push-watch registration HTTP requests
type SubscriptionHandler struct {
	subscriptions services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// SubscribeRequest represents the request body for registering a watch
type SubscribeRequest struct {
	UID       string `json:"uid"`
	AccountID string `json:"accountId"`
}

// SubscribeData is the payload of a successful subscription response
type SubscribeData struct {
	HistoryID string `json:"historyId"`
}

// Subscribe handles POST /api/subscriptions
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return api.BadRequest(c, "invalid request body")
	}

	if req.UID == "" {
		return api.BadRequest(c, "uid is required")
	}
	if req.AccountID == "" {
		return api.BadRequest(c, "accountId is required")
	}

	historyID, err := h.subscriptions.Subscribe(c.Request().Context(), req.UID, req.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return api.NotFound(c, "account not found")
		}
		return api.InternalError(c, "failed to register subscription: "+err.Error())
	}

	return api.Success(c, SubscribeData{HistoryID: historyID})
}
