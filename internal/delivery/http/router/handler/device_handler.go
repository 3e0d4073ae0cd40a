package handler

import (
	"log/slog"
	"net/http"

	"sahara/internal/delivery/http/response"
	"sahara/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// DeviceHandler holds dependencies for push token registration.
type DeviceHandler struct {
	uc     usecase.DeviceUsecase
	logger *slog.Logger
}

// NewDeviceHandler is the constructor for DeviceHandler, injected by Fx.
func NewDeviceHandler(uc usecase.DeviceUsecase, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		uc:     uc,
		logger: logger,
	}
}

// RegisterTokenRequest is the app's request to register a device push token.
type RegisterTokenRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Token       string `json:"token" validate:"required"`
}

// RegisterToken adds a device push token to the user's token set.
func (h *DeviceHandler) RegisterToken(c echo.Context) error {
	var req *RegisterTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid token registration input")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.uc.RegisterPushToken(c.Request().Context(), req.PhoneNumber, req.Token); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Push token registered")
}
