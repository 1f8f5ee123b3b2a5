package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dchat/internal/apperr"
	"dchat/internal/middleware"
	"dchat/internal/models"
	"dchat/internal/repository"
	"dchat/internal/validate"
)

// ChatHandler serves chat CRUD for the authenticated user: list, start,
// delete. Message traffic lives on the websocket, not here.
type ChatHandler struct {
	chats  repository.ChatRepository
	users  repository.UserRepository
	logger *zap.Logger

	now func() int64
}

func NewChatHandler(chats repository.ChatRepository, users repository.UserRepository, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chats:  chats,
		users:  users,
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

type startChatRequest struct {
	Receiver int64 `json:"receiver"`
}

type chatResponse struct {
	Chat  *models.Chat `json:"chat,omitempty"`
	Error *string      `json:"error"`
}

type chatListResponse struct {
	Chats []models.Chat `json:"chats,omitempty"`
	Error *string       `json:"error"`
}

type deleteChatResponse struct {
	Error *string `json:"error"`
}

// List handles GET /v1/chats?since=. Both filters apply: the caller must be a
// participant and the chat's lastActivity must be at or after since.
func (h *ChatHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	since, err := sinceQuery(c)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	chats, err := h.chats.ListForUserSince(c.Request.Context(), user.ID, since)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, chatListResponse{Chats: chats})
}

// Start handles POST /v1/chats. The target must exist, must not be the
// caller, and must not already share a chat with the caller in either
// direction.
func (h *ChatHandler) Start(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	receiver, err := validate.ID(req.Receiver)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}
	if receiver == user.ID {
		writeError(c, h.logger, http.StatusBadRequest,
			apperr.Validation("You can not start a chat with yourself."))
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), receiver); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = apperr.Validation("User not found")
		}
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	chat, err := h.chats.Create(c.Request.Context(), user.ID, receiver, h.now())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = apperr.Validation("You already have a chat opened with that user")
		}
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	h.logger.Info("chat started",
		zap.Int64("chat_id", chat.ID),
		zap.Int64("owner", chat.Owner),
		zap.Int64("receiver", chat.Receiver),
	)
	c.JSON(http.StatusCreated, chatResponse{Chat: chat})
}

// Delete handles DELETE /v1/chats/:id. Either participant may delete;
// messages referencing the chat are intentionally left behind.
func (h *ChatHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, apperr.Validation("Invalid id"))
		return
	}
	if _, err := validate.ID(chatID); err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	deleted, err := h.chats.DeleteIfParticipant(c.Request.Context(), user.ID, chatID)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		writeError(c, h.logger, http.StatusBadRequest, apperr.Validation("Chat not found"))
		return
	}

	h.logger.Info("chat deleted", zap.Int64("chat_id", chatID), zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, deleteChatResponse{})
}

func sinceQuery(c *gin.Context) (int64, error) {
	raw := c.DefaultQuery("since", "0")
	since, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("Invalid timestamp")
	}
	return validate.Since(since)
}
