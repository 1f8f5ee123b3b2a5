package realtime

import "dchat/internal/models"

// Frame kinds carried over the duplex channel. Every frame — request,
// response, or fanned-out event — names its kind explicitly; nothing is
// inferred from shape, so future kinds can overlap structurally without
// ambiguity.
const (
	KindSearchUsers = "search_users"
	KindSendMessage = "send_message"
	KindChatHistory = "chat_history"
	KindError       = "error"
)

// Request is the inbound envelope. Kind selects the handler; the remaining
// fields are read or ignored per kind.
type Request struct {
	Kind    string `json:"kind"`
	Search  string `json:"search"`
	Chat    int64  `json:"chat"`
	Message string `json:"message"`
	Since   int64  `json:"since"`
}

// Response mirrors the request's kind back to the originator. Error is
// always present on the wire: null on success, the failure message otherwise
// — its content is the sole failure signal.
type Response struct {
	Kind     string            `json:"kind"`
	Users    []models.UserHead `json:"users,omitempty"`
	Messages []models.Message  `json:"messages,omitempty"`
	Error    *string           `json:"error"`
}

// OK builds a success response of the given kind.
func OK(kind string) Response {
	return Response{Kind: kind}
}

// Failure builds an error response of the given kind.
func Failure(kind, msg string) Response {
	return Response{Kind: kind, Error: &msg}
}

// MessageEvent is the frame fanned out to the other chat participant when a
// message lands: a copy of the originating send_message request.
type MessageEvent struct {
	Kind    string `json:"kind"`
	Chat    int64  `json:"chat"`
	Message string `json:"message"`
}

// NewMessageEvent builds the fan-out copy for a stored message.
func NewMessageEvent(chat int64, content string) MessageEvent {
	return MessageEvent{Kind: KindSendMessage, Chat: chat, Message: content}
}
