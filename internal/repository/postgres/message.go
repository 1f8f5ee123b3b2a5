package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dchat/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, sender, chat int64, content string, sentAt int64) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, sent_at, chat_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sender_id, sent_at, chat_id, content`

	var m models.Message
	err := s.pool.QueryRow(ctx, query, sender, sentAt, chat, content).Scan(
		&m.ID, &m.Sender, &m.SentAt, &m.Chat, &m.Content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (s *MessageStore) ListForChatSince(ctx context.Context, chatID, since int64) ([]models.Message, error) {
	// Oldest first: clients replay history in send order. id breaks ties
	// between messages sharing a millisecond.
	query := `
		SELECT id, sender_id, sent_at, chat_id, content
		FROM messages
		WHERE chat_id = $1 AND sent_at >= $2
		ORDER BY sent_at, id`

	rows, err := s.pool.Query(ctx, query, chatID, since)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.SentAt, &m.Chat, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
