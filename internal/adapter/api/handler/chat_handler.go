package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"pasarbuku/internal/usecase"
	"pasarbuku/pkg/errors"
	"pasarbuku/pkg/response"
	"pasarbuku/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{chatUseCase: chatUseCase}
}

// GetChatList returns every room the caller belongs to, enriched with the
// opponent profile, book summary, latest message and unread count. An
// optional bookId query narrows the list to rooms about one book.
func (h *ChatHandler) GetChatList(c echo.Context) error {
	uid := c.Get("uid").(string)
	bookID := c.QueryParam("bookId")

	items, err := h.chatUseCase.GetChatList(c.Request().Context(), uid, bookID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	roomID := c.Param("chatRoomId")
	if roomID == "" {
		return response.Error(c, errors.BadRequest("Chat room ID is required", nil))
	}

	params, err := utils.GetCursorParams(c)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.chatUseCase.GetRoomMessages(c.Request().Context(), uid, roomID, params.Take, params.Before)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) GetUnreadCounts(c echo.Context) error {
	uid := c.Get("uid").(string)

	counts, err := h.chatUseCase.GetUnreadCounts(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, counts)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	uid := c.Get("uid").(string)
	roomID := c.Param("chatRoomId")
	if roomID == "" {
		return response.Error(c, errors.BadRequest("Chat room ID is required", nil))
	}

	readAt, err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), uid, roomID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"chatRoomId": roomID,
		"lastReadAt": readAt.UTC().Format(time.RFC3339Nano),
	})
}
