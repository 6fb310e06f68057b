package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alexey192/calendarit/internal/api"
	"github.com/alexey192/calendarit/internal/services"
)

// syncTimeout bounds one notification-triggered pass
const syncTimeout = 2 * time.Minute

// NotificationHandler handles mailbox push notifications delivered over
// a Pub/Sub push subscription.
type NotificationHandler struct {
	sync   services.SyncService
	logger *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(sync services.SyncService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sync: sync, logger: logger}
}

// pushEnvelope is the Pub/Sub push wrapper
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// gmailNotification is the decoded payload of one push message
type gmailNotification struct {
	EmailAddress string      `json:"emailAddress"`
	HistoryID    json.Number `json:"historyId"`
}

// HandleGmail handles POST /notifications/gmail.
//
// Malformed envelopes are acknowledged with 2xx: the transport retries
// on non-2xx, and a payload that failed validation once will fail it
// every time. Valid notifications are acknowledged immediately and the
// sync pass runs asynchronously so slow passes never hit the push
// delivery deadline.
func (h *NotificationHandler) HandleGmail(c echo.Context) error {
	var envelope pushEnvelope
	if err := c.Bind(&envelope); err != nil {
		h.logger.Warn("dropping malformed push envelope", slog.String("error", err.Error()))
		return api.NoContent(c)
	}

	if envelope.Message.Data == "" {
		h.logger.Warn("dropping push envelope without data")
		return api.NoContent(c)
	}

	payload, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		h.logger.Warn("dropping push message with undecodable data",
			slog.String("message_id", envelope.Message.MessageID))
		return api.NoContent(c)
	}

	var notification gmailNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		h.logger.Warn("dropping push message with malformed payload",
			slog.String("message_id", envelope.Message.MessageID))
		return api.NoContent(c)
	}

	if notification.EmailAddress == "" || notification.HistoryID.String() == "" {
		h.logger.Warn("dropping push message with missing fields",
			slog.String("message_id", envelope.Message.MessageID))
		return api.NoContent(c)
	}

	h.logger.Info("push notification received",
		slog.String("email", notification.EmailAddress),
		slog.String("history_id", notification.HistoryID.String()))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := h.sync.HandleNotification(ctx, notification.EmailAddress, notification.HistoryID.String()); err != nil {
			h.logger.Error("sync pass failed",
				slog.String("email", notification.EmailAddress),
				slog.String("error", err.Error()))
		}
	}()

	return api.Accepted(c, "notification accepted")
}
