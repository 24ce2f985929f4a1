package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:"

type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Take(ctx context.Context, sessionID string) (*Cart, error)
	Restore(ctx context.Context, sessionID string, c *Cart) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Load returns an empty cart when the session has none stored.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	b, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return decode(b, err)
}

// Take removes the cart and returns what was stored. Of concurrent callers
// for one session only one receives the items; the others get an empty cart.
func (s *RedisStore) Take(ctx context.Context, sessionID string) (*Cart, error) {
	b, err := s.rdb.GetDel(ctx, key(sessionID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("take cart: %w", err)
	}
	return decode(b, err)
}

func decode(b []byte, err error) (*Cart, error) {
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	var c Cart
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save writes the cart and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Restore puts a taken cart back unless the session already started a new
// one.
func (s *RedisStore) Restore(ctx context.Context, sessionID string, c *Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.rdb.SetNX(ctx, key(sessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	return nil
}
