package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/rkeerthivasan/estateline/models"
)

// Store is the Postgres-backed conversation audit log. A nil *Store
// disables auditing; every method tolerates it.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a Postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// SaveTurn appends one turn to the audit log.
func (s *Store) SaveTurn(ctx context.Context, t models.ConversationTurn) error {
	if s == nil {
		return nil
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, call_id, user_text, reply_text, intent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.CallID, t.UserText, t.ReplyText, t.Intent, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// RecentTurns returns the latest turns for a call, newest first.
func (s *Store) RecentTurns(ctx context.Context, callID string, limit int) ([]models.ConversationTurn, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, call_id, user_text, reply_text, intent, created_at
		 FROM conversation_turns WHERE call_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		callID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.ID, &t.CallID, &t.UserText, &t.ReplyText, &t.Intent, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.DB.Close()
}
