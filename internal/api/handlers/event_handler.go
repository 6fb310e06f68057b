package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/alexey192/calendarit/internal/api"
	"github.com/alexey192/calendarit/internal/repository"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 200
)

// EventHandler handles persisted-event HTTP requests
type EventHandler struct {
	eventRepo repository.EventRepository
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventRepo repository.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

// ListByUser handles GET /api/users/:uid/events
func (h *EventHandler) ListByUser(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return api.BadRequest(c, "uid is required")
	}

	limit := defaultEventPageSize
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return api.BadRequest(c, "limit must be a positive integer")
		}
		if n > maxEventPageSize {
			n = maxEventPageSize
		}
		limit = n
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return api.BadRequest(c, "offset must be a non-negative integer")
		}
		offset = n
	}

	events, total, err := h.eventRepo.ListByUser(c.Request().Context(), uid, limit, offset)
	if err != nil {
		return api.InternalError(c, "failed to list events")
	}

	return api.Paginated(c, events, total, limit, offset)
}

// MarkSeen handles PATCH /api/events/:id/seen
func (h *EventHandler) MarkSeen(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return api.BadRequest(c, "id is required")
	}

	if err := h.eventRepo.MarkSeen(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return api.NotFound(c, "event not found")
		}
		return api.InternalError(c, "failed to mark event seen")
	}

	return api.NoContent(c)
}
