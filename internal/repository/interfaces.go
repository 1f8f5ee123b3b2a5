package repository

import (
	"context"
	"errors"

	"dchat/internal/models"
)

// Storage outcomes are three-way: a found row comes back as (*T, nil), a
// missing row as (nil, ErrNotFound), and a real failure as (nil, err). Stores
// never return nil, nil — callers branch with errors.Is, not nil checks.
var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a unique constraint rejected the insert
	// (username already taken, chat pair already exists).
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository handles account storage.
type UserRepository interface {
	// Create inserts a user and returns it with ID populated.
	// Returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// SearchByUsername returns heads of users whose username contains the
	// substring. Empty result is an empty slice, not nil.
	SearchByUsername(ctx context.Context, substr string) ([]models.UserHead, error)
}

// ChatRepository handles pairwise chat storage.
type ChatRepository interface {
	// Create inserts a chat. Returns ErrDuplicate if a chat between the two
	// users already exists in either direction.
	Create(ctx context.Context, owner, receiver, lastActivity int64) (*models.Chat, error)

	GetByID(ctx context.Context, id int64) (*models.Chat, error)

	// ListForUserSince returns chats the user participates in whose
	// lastActivity is at or after since. Both predicates apply together.
	ListForUserSince(ctx context.Context, userID, since int64) ([]models.Chat, error)

	// DeleteIfParticipant removes the chat only when the user is a
	// participant; reports whether a row was deleted. Messages referencing
	// the chat are left in place.
	DeleteIfParticipant(ctx context.Context, userID, chatID int64) (bool, error)
}

// MessageRepository handles message persistence.
type MessageRepository interface {
	Create(ctx context.Context, sender, chat int64, content string, sentAt int64) (*models.Message, error)

	// ListForChatSince returns messages in the chat sent at or after since,
	// oldest first.
	ListForChatSince(ctx context.Context, chatID, since int64) ([]models.Message, error)
}

// ActivityRepository handles the append-only audit log.
type ActivityRepository interface {
	Create(ctx context.Context, owner int64, typ models.ActivityType, timestamp int64) (*models.Activity, error)
	ListByTypeSince(ctx context.Context, typ models.ActivityType, since int64) ([]models.Activity, error)
}
