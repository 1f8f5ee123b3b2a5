package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dchat/internal/apperr"
	"dchat/internal/middleware"
	"dchat/internal/models"
	"dchat/internal/realtime"
	"dchat/internal/repository"
	"dchat/internal/validate"
)

const (
	maxFrameSize = 1 << 16 // inbound frames are small JSON; 64KB is generous
	readTimeout  = 60 * time.Second

	// opTimeout bounds each storage round-trip so one stuck query cannot
	// pin a session's receive loop forever.
	opTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The bearer token is the access control; origin is not.
		return true
	},
}

// SocketHandler owns the websocket endpoint: it upgrades the request,
// registers the session, and runs the receive-dispatch-respond loop until
// the transport dies.
//
// Error discipline: validation, authorization, and storage failures are
// answered in-band with an error response of the same kind, and the loop
// continues. Only a transport failure ends the session.
type SocketHandler struct {
	registry   *realtime.Registry
	users      repository.UserRepository
	chats      repository.ChatRepository
	messages   repository.MessageRepository
	activities repository.ActivityRepository
	logger     *zap.Logger

	now func() int64
}

func NewSocketHandler(
	registry *realtime.Registry,
	users repository.UserRepository,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	activities repository.ActivityRepository,
	logger *zap.Logger,
) *SocketHandler {
	return &SocketHandler{
		registry:   registry,
		users:      users,
		chats:      chats,
		messages:   messages,
		activities: activities,
		logger:     logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// Handle handles GET /v1/ws. Runs behind AuthMiddleware, so the identity is
// already resolved by the time the upgrade happens.
func (h *SocketHandler) Handle(c *gin.Context) {
	user := middleware.CurrentUser(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := realtime.NewSession(user.ID, ws, h.logger)
	h.registry.Register(sess)
	defer h.registry.Remove(user.ID, sess.ID)

	h.logger.Info("session opened",
		zap.Int64("user_id", user.ID),
		zap.String("session_id", sess.ID),
	)

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// The receive loop. Registry eviction closes the transport, which
	// surfaces here as a read error, so eviction and loop exit are mutually
	// triggering without any extra signaling.
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			h.logger.Info("session ended",
				zap.Int64("user_id", user.ID),
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			return
		}
		if err := sess.SendJSON(h.dispatch(c.Request.Context(), user, data)); err != nil {
			return
		}
	}
}

// dispatch decodes one inbound frame and routes it by kind to exactly one
// handler, returning the response to send back on the originating session.
func (h *SocketHandler) dispatch(ctx context.Context, user *models.User, data []byte) realtime.Response {
	var req realtime.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return realtime.Failure(realtime.KindError, "Invalid argument for request.")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	switch req.Kind {
	case realtime.KindSearchUsers:
		return h.searchUsers(ctx, req)
	case realtime.KindSendMessage:
		return h.sendMessage(ctx, user, req)
	case realtime.KindChatHistory:
		return h.chatHistory(ctx, user, req)
	default:
		return realtime.Failure(realtime.KindError, "Unknown request kind.")
	}
}

func (h *SocketHandler) searchUsers(ctx context.Context, req realtime.Request) realtime.Response {
	search, err := validate.SearchQuery(req.Search)
	if err != nil {
		return h.failure(realtime.KindSearchUsers, err)
	}

	users, err := h.users.SearchByUsername(ctx, search)
	if err != nil {
		return h.failure(realtime.KindSearchUsers, err)
	}

	resp := realtime.OK(realtime.KindSearchUsers)
	resp.Users = users
	return resp
}

func (h *SocketHandler) sendMessage(ctx context.Context, user *models.User, req realtime.Request) realtime.Response {
	content, err := validate.MessageContent(req.Message)
	if err != nil {
		return h.failure(realtime.KindSendMessage, err)
	}

	chat, err := h.participantChat(ctx, user, req.Chat)
	if err != nil {
		return h.failure(realtime.KindSendMessage, err)
	}

	sentAt := h.now()
	msg, err := h.messages.Create(ctx, user.ID, chat.ID, content, sentAt)
	if err != nil {
		return h.failure(realtime.KindSendMessage, err)
	}

	if _, err := h.activities.Create(ctx, user.ID, models.ActivityMessageSent, sentAt); err != nil {
		return h.failure(realtime.KindSendMessage, err)
	}

	// The message is durable by now; the peer can immediately read it back.
	// An offline peer is a silent no-op, never an error for the sender.
	peer := chat.OtherParticipant(user.ID)
	h.registry.Deliver(peer, realtime.NewMessageEvent(chat.ID, content))

	h.logger.Debug("message sent",
		zap.Int64("message_id", msg.ID),
		zap.Int64("chat_id", chat.ID),
		zap.Int64("sender", user.ID),
	)
	return realtime.OK(realtime.KindSendMessage)
}

func (h *SocketHandler) chatHistory(ctx context.Context, user *models.User, req realtime.Request) realtime.Response {
	since, err := validate.Since(req.Since)
	if err != nil {
		return h.failure(realtime.KindChatHistory, err)
	}

	chat, err := h.participantChat(ctx, user, req.Chat)
	if err != nil {
		return h.failure(realtime.KindChatHistory, err)
	}

	messages, err := h.messages.ListForChatSince(ctx, chat.ID, since)
	if err != nil {
		return h.failure(realtime.KindChatHistory, err)
	}

	resp := realtime.OK(realtime.KindChatHistory)
	resp.Messages = messages
	return resp
}

// participantChat loads the chat and authorizes the user as one of its two
// participants.
func (h *SocketHandler) participantChat(ctx context.Context, user *models.User, chatID int64) (*models.Chat, error) {
	if _, err := validate.ID(chatID); err != nil {
		return nil, err
	}

	chat, err := h.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("Chat not found")
		}
		return nil, err
	}
	if !chat.HasParticipant(user.ID) {
		return nil, apperr.Validation("You are not apart of this chat")
	}
	return chat, nil
}

func (h *SocketHandler) failure(kind string, err error) realtime.Response {
	if !apperr.IsValidation(err) {
		h.logger.Error("socket request failed", zap.String("kind", kind), zap.Error(err))
	}
	return realtime.Failure(kind, apperr.UserMessage(err))
}
