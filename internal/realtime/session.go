package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// sendBuffer bounds how far a slow reader may fall behind before the
	// session is dropped instead of stalling senders.
	sendBuffer = 128
)

// ErrSessionClosed is returned by Send once the session has been torn down.
var ErrSessionClosed = errors.New("session closed")

// Transport is the subset of *websocket.Conn the session writes through.
// Reads stay on the raw connection in the handler's receive loop; the
// session only ever owns the outbound half.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one live duplex connection bound to one authenticated user.
// Outbound traffic is serialized through a buffered channel drained by a
// single write loop, so handler goroutines and registry deliveries never
// write to the socket directly.
type Session struct {
	// ID distinguishes this connection from its successor when the same
	// user reconnects; the registry compares IDs before evicting.
	ID     string
	UserID int64

	transport Transport
	logger    *zap.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewSession wraps a transport for the given user.
func NewSession(userID int64, transport Transport, logger *zap.Logger) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		transport: transport,
		logger:    logger,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

// Start launches the write loop. Called exactly once, by the registry when
// the session is registered.
func (s *Session) Start() {
	go s.writeLoop()
}

// Send enqueues a payload for delivery. It never blocks: a full buffer means
// the peer has stopped reading, and the session is closed rather than
// letting it stall whoever is sending.
func (s *Session) Send(payload []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	case s.send <- payload:
		return nil
	default:
		s.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrSessionClosed
	}
}

// SendJSON marshals v and enqueues it.
func (s *Session) SendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(payload)
}

// Close tears the session down: stops the write loop, sends a close frame
// while the socket may still be open, and closes the transport. Safe to call
// from any goroutine, any number of times.
func (s *Session) Close(code int, reason string) {
	s.once.Do(func() {
		close(s.done)
		deadline := time.Now().Add(writeWait)
		_ = s.transport.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.transport.Close()
		s.logger.Debug("session closed",
			zap.String("session_id", s.ID),
			zap.Int64("user_id", s.UserID),
			zap.String("reason", reason),
		)
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if err := s.transport.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.transport.WriteMessage(messageType, payload)
}
