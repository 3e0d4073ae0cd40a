// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"sahara/internal/delivery/http/middleware"
	"sahara/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	NotificationHandler *handler.NotificationHandler
	InboxHandler        *handler.InboxHandler
	DeviceHandler       *handler.DeviceHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	notificationHandler *handler.NotificationHandler
	inboxHandler        *handler.InboxHandler
	deviceHandler       *handler.DeviceHandler
	authMiddleware      *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		notificationHandler: params.NotificationHandler,
		inboxHandler:        params.InboxHandler,
		deviceHandler:       params.DeviceHandler,
		authMiddleware:      params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login)
	}

	// Beneficiary-facing inbox routes, addressed by phone number
	inboxGroup := e.Group("/users/:phone/notifications")
	{
		inboxGroup.GET("", r.inboxHandler.List)
		inboxGroup.GET("/unread-count", r.inboxHandler.UnreadCount)
		inboxGroup.GET("/stream", r.inboxHandler.Stream)
		inboxGroup.POST("/read-all", r.inboxHandler.MarkAllAsRead)
	}

	notificationGroup := e.Group("/notifications")
	{
		notificationGroup.PATCH("/:id/read", r.inboxHandler.MarkAsRead)
		notificationGroup.DELETE("/:id", r.inboxHandler.Delete)
	}

	// Device token registration
	e.POST("/devices/tokens", r.deviceHandler.RegisterToken)

	// Admin routes that require authentication and the "admin" role
	adminGroup := e.Group("/admin")
	adminGroup.Use(r.authMiddleware.Authenticate)         // First, check if logged in
	adminGroup.Use(r.authMiddleware.RequireRole("admin")) // Then, check for the role
	{
		adminGroup.POST("/notifications/send", r.notificationHandler.Send)
		adminGroup.POST("/notifications/preview", r.notificationHandler.Preview)
		adminGroup.POST("/notifications/schedule", r.notificationHandler.Schedule)
	}
}
