package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CloseReplaced is sent to a session evicted because the same user opened a
// newer connection.
const CloseReplaced = 4001

// Registry is the process-wide directory of user id → live session. It
// enforces at most one session per user: registering a new session for a
// user atomically evicts the previous one, newest wins.
//
// The mutex guards only the map. Socket I/O — closing an evicted session,
// writing a delivered frame — always happens outside the lock, so a slow
// peer never blocks operations on other users.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		logger:   logger,
	}
}

// Register installs the session as the user's live connection and starts its
// write loop. Any previous session for the same user is closed after the
// swap; there is no instant at which both are reachable.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	previous := r.sessions[sess.UserID]
	r.sessions[sess.UserID] = sess
	r.mu.Unlock()

	sess.Start()

	if previous != nil {
		previous.Close(CloseReplaced, "session replaced by a newer connection")
		r.logger.Info("session superseded",
			zap.Int64("user_id", sess.UserID),
			zap.String("old_session_id", previous.ID),
			zap.String("new_session_id", sess.ID),
		)
	}
}

// Remove evicts the session if it is still the user's current one, then
// closes it. A stale session id — one already replaced by a newer
// connection — only closes itself and leaves the successor's mapping
// untouched. Idempotent.
func (r *Registry) Remove(userID int64, sessionID string) {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	if ok && current.ID == sessionID {
		delete(r.sessions, userID)
	} else {
		current = nil
	}
	r.mu.Unlock()

	if current != nil {
		current.Close(websocket.CloseNormalClosure, "session removed")
	}
}

// Deliver pushes an event to the user's live session, if any. An offline
// recipient is a normal state: the event is dropped and Deliver reports
// false without error. The enqueue is non-blocking, so a dead or slow
// recipient cannot stall the caller.
func (r *Registry) Deliver(userID int64, event any) bool {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal outbound event", zap.Error(err))
		return false
	}
	if err := sess.Send(payload); err != nil {
		r.logger.Debug("deliver to closed session",
			zap.Int64("user_id", userID),
			zap.String("session_id", sess.ID),
		)
		return false
	}
	return true
}

// Connected reports whether the user currently has a live session.
func (r *Registry) Connected(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[userID]
	return ok
}

// Shutdown evicts and closes every session. Used at server stop.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.sessions = make(map[int64]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close(websocket.CloseGoingAway, "server shutting down")
	}
}
