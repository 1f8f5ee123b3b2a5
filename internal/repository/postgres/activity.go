package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dchat/internal/models"
)

type ActivityStore struct {
	pool *pgxpool.Pool
}

func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

func (s *ActivityStore) Create(ctx context.Context, owner int64, typ models.ActivityType, timestamp int64) (*models.Activity, error) {
	query := `
		INSERT INTO activities (owner_id, type, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, type, timestamp`

	var a models.Activity
	err := s.pool.QueryRow(ctx, query, owner, string(typ), timestamp).Scan(
		&a.ID, &a.Owner, &a.Type, &a.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return &a, nil
}

func (s *ActivityStore) ListByTypeSince(ctx context.Context, typ models.ActivityType, since int64) ([]models.Activity, error) {
	query := `
		SELECT id, owner_id, type, timestamp
		FROM activities
		WHERE type = $1 AND timestamp >= $2
		ORDER BY timestamp, id`

	rows, err := s.pool.Query(ctx, query, string(typ), since)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Owner, &a.Type, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}
