package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dchat/internal/models"
	"dchat/internal/repository"
)

type ChatStore struct {
	pool *pgxpool.Pool
}

func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

func (s *ChatStore) Create(ctx context.Context, owner, receiver, lastActivity int64) (*models.Chat, error) {
	// The chats_pair_unique index is on the LEAST/GREATEST of the pair, so
	// this insert fails whichever direction an existing chat was created in.
	query := `
		INSERT INTO chats (owner_id, receiver_id, last_activity)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, receiver_id, last_activity`

	var c models.Chat
	err := s.pool.QueryRow(ctx, query, owner, receiver, lastActivity).Scan(
		&c.ID, &c.Owner, &c.Receiver, &c.LastActivity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return &c, nil
}

func (s *ChatStore) GetByID(ctx context.Context, id int64) (*models.Chat, error) {
	query := `SELECT id, owner_id, receiver_id, last_activity FROM chats WHERE id = $1`

	var c models.Chat
	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Owner, &c.Receiver, &c.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get chat by id: %w", err)
	}
	return &c, nil
}

func (s *ChatStore) ListForUserSince(ctx context.Context, userID, since int64) ([]models.Chat, error) {
	query := `
		SELECT id, owner_id, receiver_id, last_activity
		FROM chats
		WHERE (owner_id = $1 OR receiver_id = $1) AND last_activity >= $2
		ORDER BY last_activity DESC`

	rows, err := s.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.Owner, &c.Receiver, &c.LastActivity); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func (s *ChatStore) DeleteIfParticipant(ctx context.Context, userID, chatID int64) (bool, error) {
	// Participant check folded into the delete itself; a non-participant
	// deletes zero rows and cannot tell "not mine" from "does not exist".
	query := `
		DELETE FROM chats
		WHERE id = $1 AND (owner_id = $2 OR receiver_id = $2)`

	tag, err := s.pool.Exec(ctx, query, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("delete chat: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
