package handler

import (
	"github.com/labstack/echo/v4"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/usecase"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	UserID   string `json:"userId" validate:"required"`
	VendorID string `json:"vendorId" validate:"required"`
}

type createVendorChatRequest struct {
	VendorID  string `json:"vendorId" validate:"required"`
	Vendor2ID string `json:"vendor2Id" validate:"required,nefield=VendorID"`
}

type supportChatRequest struct {
	ActorKind string `json:"actorKind" validate:"required,oneof=USER VENDOR"`
	ActorID   string `json:"actorId" validate:"required"`
}

type sendMessageRequest struct {
	ChatID     string `json:"chatId" validate:"required"`
	SenderID   string `json:"senderId" validate:"required"`
	SenderType string `json:"senderType" validate:"required,oneof=USER VENDOR"`
	Content    string `json:"content" validate:"required,max=4000"`
}

type markSeenRequest struct {
	ChatID  string `json:"chatId" validate:"required"`
	ActorID string `json:"actorId" validate:"required"`
}

type unreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

// ListChats handles GET /chats?byUser= and GET /chats?byVendor=
func (h *ChatHandler) ListChats(c echo.Context) error {
	byUser := c.QueryParam("byUser")
	byVendor := c.QueryParam("byVendor")

	var (
		chats []*entity.Chat
		err   error
	)
	switch {
	case byUser != "" && byVendor != "":
		return response.Error(c, errors.BadRequest("Use either byUser or byVendor, not both", nil))
	case byUser != "":
		chats, err = h.chatUseCase.ListChatsByUser(c.Request().Context(), byUser)
	case byVendor != "":
		chats, err = h.chatUseCase.ListChatsByVendor(c.Request().Context(), byVendor)
	default:
		return response.Error(c, errors.BadRequest("byUser or byVendor is required", nil))
	}
	if err != nil {
		return response.Error(c, err)
	}
	if chats == nil {
		chats = []*entity.Chat{}
	}

	return response.Success(c, chats)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	chat, err := h.chatUseCase.GetChat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

// FindOrCreateChat handles POST /chat. 201 when the chat was created, 200 when it already existed.
func (h *ChatHandler) FindOrCreateChat(c echo.Context) error {
	var req createChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	chat, created, err := h.chatUseCase.FindOrCreateChat(c.Request().Context(), req.UserID, req.VendorID)
	if err != nil {
		return response.Error(c, err)
	}
	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) FindOrCreateVendorChat(c echo.Context) error {
	var req createVendorChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	chat, created, err := h.chatUseCase.FindOrCreateVendorChat(c.Request().Context(), req.VendorID, req.Vendor2ID)
	if err != nil {
		return response.Error(c, err)
	}
	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) EnsureSupportChat(c echo.Context) error {
	var req supportChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	actor := entity.Actor{Kind: entity.ActorKind(req.ActorKind), ID: req.ActorID}
	chat, created, err := h.chatUseCase.EnsureSupportChat(c.Request().Context(), actor)
	if err != nil {
		return response.Error(c, err)
	}
	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

// ListMessages handles GET /messages?chatId=
func (h *ChatHandler) ListMessages(c echo.Context) error {
	chatID := c.QueryParam("chatId")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("chatId is required", nil))
	}

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		ChatID:  req.ChatID,
		Sender:  entity.Sender{Type: entity.SenderType(req.SenderType), ID: req.SenderID},
		Content: req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkSeen handles POST /message/seen. The reply is a plain-text acknowledgement.
func (h *ChatHandler) MarkSeen(c echo.Context) error {
	var req markSeenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkSeen(c.Request().Context(), req.ChatID, req.ActorID); err != nil {
		return response.Error(c, err)
	}

	return response.Ack(c)
}

// UnreadCount handles GET /message/unreadCount?chatId=&actorId=
func (h *ChatHandler) UnreadCount(c echo.Context) error {
	chatID := c.QueryParam("chatId")
	actorID := c.QueryParam("actorId")
	if chatID == "" || actorID == "" {
		return response.Error(c, errors.BadRequest("chatId and actorId are required", nil))
	}

	count, err := h.chatUseCase.UnreadCount(c.Request().Context(), chatID, actorID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, unreadCountResponse{UnreadCount: count})
}
