package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a database connection pool from a Postgres connection URL
// (the DATABASE_URL convention).
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	// Pool tuning for a chat backend: each live websocket plus each API
	// request may briefly hold a connection; 25 keeps us well under the
	// usual Postgres max_connections of 100.
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 20 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger.Info("DB connection established",
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// schema is applied at startup so a fresh database is usable immediately.
// Every statement is idempotent.
//
// chats carries a unique index on the unordered (owner, receiver) pair:
// LEAST/GREATEST normalize the direction, so Chat{A,B} and Chat{B,A} collide
// on insert instead of creating a second row.
//
// messages.chat_id is deliberately not a foreign key: deleting a chat is
// allowed to orphan its messages.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id        BIGSERIAL PRIMARY KEY,
		username  VARCHAR(50) NOT NULL UNIQUE,
		password  VARCHAR(100) NOT NULL,
		is_admin  BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id            BIGSERIAL PRIMARY KEY,
		owner_id      BIGINT NOT NULL,
		receiver_id   BIGINT NOT NULL,
		last_activity BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS chats_pair_unique
		ON chats (LEAST(owner_id, receiver_id), GREATEST(owner_id, receiver_id))`,
	`CREATE INDEX IF NOT EXISTS chats_owner_idx ON chats (owner_id)`,
	`CREATE INDEX IF NOT EXISTS chats_receiver_idx ON chats (receiver_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id        BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL,
		sent_at   BIGINT NOT NULL,
		chat_id   BIGINT NOT NULL,
		content   VARCHAR(300) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat_idx ON messages (chat_id)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id        BIGSERIAL PRIMARY KEY,
		owner_id  BIGINT NOT NULL,
		type      VARCHAR(32) NOT NULL,
		timestamp BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS activities_type_idx ON activities (type)`,
}

// EnsureSchema creates the tables and indexes if they are absent.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	db.logger.Info("database schema ensured")
	return nil
}
