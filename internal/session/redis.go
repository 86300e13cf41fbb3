package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rkeerthivasan/estateline/internal/dialogue"
	"github.com/rkeerthivasan/estateline/models"
)

// Redis keeps sessions in Redis with a native TTL, so multiple assistant
// instances behind one telephony number share call state.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb, ttl: ttl}
}

func sessionKey(callID string) string { return fmt.Sprintf("call:%s:session", callID) }

func (s *Redis) GetOrCreate(ctx context.Context, callID string, profile models.ClientProfile) (*dialogue.Session, bool, error) {
	if sess, err := s.Get(ctx, callID); err == nil {
		_ = s.client.Expire(ctx, sessionKey(callID), s.ttl).Err()
		return sess, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	sess := dialogue.NewSession(callID, profile)
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, false, err
	}
	// SetNX so two racing first turns agree on one session
	created, err := s.client.SetNX(ctx, sessionKey(callID), data, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("storing session: %w", err)
	}
	if !created {
		sess, err := s.Get(ctx, callID)
		return sess, false, err
	}
	return sess, true, nil
}

func (s *Redis) Get(ctx context.Context, callID string) (*dialogue.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var sess dialogue.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

func (s *Redis) Save(ctx context.Context, sess *dialogue.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(sess.CallID), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *Redis) Remove(ctx context.Context, callID string) error {
	return s.client.Del(ctx, sessionKey(callID)).Err()
}

func (s *Redis) Count(ctx context.Context) (int, error) {
	var cursor uint64
	n := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "call:*:session", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scanning sessions: %w", err)
		}
		n += len(keys)
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}
