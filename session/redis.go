package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the Redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore keeps the state document under a single prefixed key. Used by
// the web front-end, where session state must survive worker restarts.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = "eb"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key() string {
	return s.prefix + ":state"
}

// Save writes the full state document, replacing any previous one.
func (s *RedisStore) Save(ctx context.Context, state *PersistedState) error {
	if state == nil {
		return errors.New("nil state")
	}

	snapshot := *state
	snapshot.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load reads the state document. A missing key or an undecodable blob
// returns (nil, nil); only backend failures surface as errors.
func (s *RedisStore) Load(ctx context.Context) (*PersistedState, error) {
	data, err := s.rdb.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	return &state, nil
}

// Clear removes the state document.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
