package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rkeerthivasan/estateline/config"
	"github.com/rkeerthivasan/estateline/internal/dialogue"
	"github.com/rkeerthivasan/estateline/models"
)

// ErrNotFound is reported for call ids with no tracked session, including
// sessions already removed after finalization.
var ErrNotFound = errors.New("session not found")

// Store maps an external call identifier to its dialogue session. The store
// is the only owner of cross-turn session state.
type Store interface {
	// GetOrCreate is idempotent: an already-tracked call id returns the
	// existing session unchanged and the supplied profile is ignored.
	GetOrCreate(ctx context.Context, callID string, profile models.ClientProfile) (*dialogue.Session, bool, error)
	Get(ctx context.Context, callID string) (*dialogue.Session, error)
	// Save persists counter changes after a transition. In-memory stores
	// treat it as a no-op since sessions are held by reference.
	Save(ctx context.Context, sess *dialogue.Session) error
	Remove(ctx context.Context, callID string) error
	Count(ctx context.Context) (int, error)
}

type StoreType string

const (
	InMemoryStore StoreType = "inmemory"
	RedisStore    StoreType = "redis"
)

// NewStore builds the configured session store backend.
func NewStore(cfg config.SessionsConfig, redisCfg config.RedisConfig) (Store, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	switch StoreType(cfg.Store) {
	case InMemoryStore, "":
		return NewInMemoryStore(ttl), nil
	case RedisStore:
		return NewRedisStore(fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port), redisCfg.Pass, redisCfg.DB, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Store)
	}
}
