package models

// User is a registered account. Password holds the bcrypt hash, never the
// plaintext; it is excluded from JSON so a User can never leak its hash
// through a response payload.
//
// IDs are int64 (bigserial) across all entities: storage assigns them at
// insert and they are monotonic, so "newer" stays comparable by id.
// Timestamps are UNIX milliseconds, matching the wire format.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Head returns the projection of the user that is safe to show other users.
func (u User) Head() UserHead {
	return UserHead{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

// UserHead is a User without credentials — the only form ever sent to
// someone other than the account holder (e.g. search results).
type UserHead struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Chat is a pairwise conversation. The unordered pair (Owner, Receiver) is
// unique: at most one chat exists between two users, whichever of them
// created it. Deleting a chat leaves its messages orphaned on purpose.
type Chat struct {
	ID           int64 `json:"id"`
	Owner        int64 `json:"owner"`
	Receiver     int64 `json:"receiver"`
	LastActivity int64 `json:"lastActivity"`
}

// HasParticipant reports whether the given user is a party to this chat.
func (c Chat) HasParticipant(userID int64) bool {
	return c.Owner == userID || c.Receiver == userID
}

// OtherParticipant returns the chat member that is not the given user.
func (c Chat) OtherParticipant(userID int64) int64 {
	if c.Owner == userID {
		return c.Receiver
	}
	return c.Owner
}

// Message is immutable once stored and is never deleted through the API.
type Message struct {
	ID      int64  `json:"id"`
	Sender  int64  `json:"sender"`
	SentAt  int64  `json:"sentAt"`
	Chat    int64  `json:"chat"`
	Content string `json:"content"`
}

// ActivityType tags an Activity row.
type ActivityType string

const (
	ActivityUserLoggedIn ActivityType = "USER_LOGGED_IN"
	ActivityMessageSent  ActivityType = "MESSAGE_SENT"
)

// ParseActivityType validates a wire value against the known types.
func ParseActivityType(s string) (ActivityType, bool) {
	switch ActivityType(s) {
	case ActivityUserLoggedIn, ActivityMessageSent:
		return ActivityType(s), true
	}
	return "", false
}

// Activity is an append-only audit record, written as a side effect of a
// successful login or message send.
type Activity struct {
	ID        int64        `json:"id"`
	Owner     int64        `json:"owner"`
	Type      ActivityType `json:"type"`
	Timestamp int64        `json:"timestamp"`
}
