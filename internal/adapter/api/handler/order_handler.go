package handler

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/usecase"
	"pasarbuku/pkg/errors"
	"pasarbuku/pkg/response"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{orderUseCase: orderUseCase}
}

type CreateOrderRequest struct {
	BookID string `json:"bookId" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED CANCELLED"`
}

// CreateOrder places a purchase request for a book and opens the chat room
// between buyer and seller.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.CreateOrder(c.Request().Context(), uid, req.BookID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, order)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	uid := c.Get("uid").(string)
	orderID := c.Param("id")
	if orderID == "" {
		return response.Error(c, errors.BadRequest("Order ID is required", nil))
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateOrderStatus(c.Request().Context(), orderID, uid, req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
