package handler

import (
	"log/slog"
	"net/http"
	"time"

	"sahara/internal/delivery/http/response"
	"sahara/internal/domain/entity"
	"sahara/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// NotificationHandler holds dependencies for the admin fan-out handlers.
type NotificationHandler struct {
	uc     usecase.NotificationUsecase
	logger *slog.Logger
}

// NewNotificationHandler is the constructor for NotificationHandler, injected by Fx.
func NewNotificationHandler(uc usecase.NotificationUsecase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		uc:     uc,
		logger: logger,
	}
}

// SendNotificationRequest is the admin request to fan a notification out.
type SendNotificationRequest struct {
	Target usecase.Target              `json:"target"`
	Title  string                      `json:"title" validate:"required"`
	Body   string                      `json:"body" validate:"required"`
	Data   map[string]string           `json:"data"`
	Type   entity.NotificationCategory `json:"type"`
}

// ScheduleNotificationRequest is the admin request to queue a future delivery.
type ScheduleNotificationRequest struct {
	PhoneNumber string                      `json:"phone_number" validate:"required"`
	Title       string                      `json:"title" validate:"required"`
	Body        string                      `json:"body" validate:"required"`
	Data        map[string]string           `json:"data"`
	Type        entity.NotificationCategory `json:"type"`
	ScheduledAt time.Time                   `json:"scheduled_at" validate:"required"`
}

// Send handles the fan-out request.
func (h *NotificationHandler) Send(c echo.Context) error {
	var req *SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid notification input")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	outcome, err := h.uc.Send(c.Request().Context(), req.Target, usecase.NotificationInput{
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
		Category: req.Type,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, outcome, "Notification sent")
}

// Preview resolves a targeting rule without sending anything, so operators
// can see the audience size before committing to a fan-out.
func (h *NotificationHandler) Preview(c echo.Context) error {
	var target usecase.Target
	if err := c.Bind(&target); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid targeting rule")
	}

	resolution, err := h.uc.Resolve(c.Request().Context(), target)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, resolution, "Target resolved")
}

// Schedule handles the deferred delivery request.
func (h *NotificationHandler) Schedule(c echo.Context) error {
	var req *ScheduleNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid schedule input")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	id, err := h.uc.Schedule(c.Request().Context(), req.PhoneNumber, usecase.NotificationInput{
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
		Category: req.Type,
	}, req.ScheduledAt)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{"id": id}, "Notification scheduled")
}
