package router

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/adapter/api/handler"
	"pasarbuku/internal/adapter/api/middleware"
)

func SetupOrderRouter(e *echo.Echo, orderHandler *handler.OrderHandler, authMiddleware *middleware.AuthMiddleware) {
	orderGroup := e.Group("/v1/orders")
	orderGroup.Use(authMiddleware.Authenticate)

	orderGroup.POST("", orderHandler.CreateOrder)              // POST /v1/orders - Place order, open chat room
	orderGroup.PATCH("/:id/status", orderHandler.UpdateOrderStatus) // PATCH /v1/orders/:id/status - Seller approves or cancels
}
