package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dchat/internal/models"
	"dchat/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING id, username, password, is_admin`

	var u models.User
	err := s.pool.QueryRow(ctx, query, username, passwordHash).Scan(
		&u.ID, &u.Username, &u.Password, &u.IsAdmin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, password, is_admin FROM users WHERE id = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password, is_admin FROM users WHERE username = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *UserStore) SearchByUsername(ctx context.Context, substr string) ([]models.UserHead, error) {
	// The caller has already reduced substr to alphanumerics, so escaping
	// LIKE metacharacters is not a concern here.
	query := `
		SELECT id, username, is_admin
		FROM users
		WHERE username LIKE '%' || $1 || '%'
		ORDER BY username`

	rows, err := s.pool.Query(ctx, query, substr)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	heads := []models.UserHead{}
	for rows.Next() {
		var h models.UserHead
		if err := rows.Scan(&h.ID, &h.Username, &h.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user head: %w", err)
		}
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user heads: %w", err)
	}
	return heads, nil
}
