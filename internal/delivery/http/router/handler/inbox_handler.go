package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"sahara/internal/delivery/http/response"
	"sahara/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// InboxHandler holds dependencies for the beneficiary inbox handlers.
type InboxHandler struct {
	uc     usecase.InboxUsecase
	logger *slog.Logger
}

// NewInboxHandler is the constructor for InboxHandler, injected by Fx.
func NewInboxHandler(uc usecase.InboxUsecase, logger *slog.Logger) *InboxHandler {
	return &InboxHandler{
		uc:     uc,
		logger: logger,
	}
}

// List returns the user's inbox, newest first.
func (h *InboxHandler) List(c echo.Context) error {
	phoneNumber := c.Param("phone")
	if phoneNumber == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Phone number is required")
	}

	records, err := h.uc.List(c.Request().Context(), phoneNumber)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, records, "Notifications retrieved")
}

// UnreadCount returns the user's current unread count.
func (h *InboxHandler) UnreadCount(c echo.Context) error {
	phoneNumber := c.Param("phone")
	if phoneNumber == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Phone number is required")
	}

	count, err := h.uc.UnreadCount(c.Request().Context(), phoneNumber)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"unread_count": count}, "Unread count retrieved")
}

// MarkAsRead marks one notification read.
func (h *InboxHandler) MarkAsRead(c echo.Context) error {
	notificationID := c.Param("id")
	if notificationID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Notification ID is required")
	}

	if err := h.uc.MarkAsRead(c.Request().Context(), notificationID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Notification marked as read")
}

// MarkAllAsRead marks every currently unread notification read.
func (h *InboxHandler) MarkAllAsRead(c echo.Context) error {
	phoneNumber := c.Param("phone")
	if phoneNumber == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Phone number is required")
	}

	if err := h.uc.MarkAllAsRead(c.Request().Context(), phoneNumber); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "All notifications marked as read")
}

// Delete removes a notification from the user's view.
func (h *InboxHandler) Delete(c echo.Context) error {
	notificationID := c.Param("id")
	if notificationID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Notification ID is required")
	}

	if err := h.uc.Delete(c.Request().Context(), notificationID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Notification deleted")
}

// Stream pushes live inbox updates to the client as server-sent events.
// Each event carries the full sorted inbox state.
func (h *InboxHandler) Stream(c echo.Context) error {
	phoneNumber := c.Param("phone")
	if phoneNumber == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Phone number is required")
	}

	ctx := c.Request().Context()
	sub, err := h.uc.Subscribe(ctx, phoneNumber)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sub.Cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil

		case records, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					h.logger.Warn("inbox stream closed with error",
						slog.String("phone_number", phoneNumber),
						slog.Any("error", err),
					)
				}

				return nil
			}

			payload, err := json.Marshal(records)
			if err != nil {
				return errors.WithStack(err)
			}

			fmt.Fprintf(w, "event: inbox\ndata: %s\n\n", payload)
			w.Flush()
		}
	}
}
