// Package cache is a Redis read-through cache for menu and order history
// reads. A nil *Cache is valid and disables caching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/table_order/pkg/logging"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	sfg    singleflight.Group
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Key names one cached value inside an invalidation scope.
type Key struct {
	scope string
	name  string
}

func (k Key) String() string {
	return k.scope + ":" + k.name
}

// genKey counts invalidations of the scope. It lives outside the scope's
// prefix so deletePrefix never resets it.
func (k Key) genKey() string {
	return genKey(k.scope)
}

func genKey(scope string) string {
	return "cache-gen:" + scope
}

func menuScope(slug string) string {
	return "menu:" + slug
}

func ordersScope(cpf string) string {
	return "orders:" + cpf
}

func MenuKey(slug, method string) Key {
	return Key{scope: menuScope(slug), name: method}
}

func OrdersKey(cpf string, page, size int) Key {
	return Key{scope: ordersScope(cpf), name: fmt.Sprintf("%d:%d", page, size)}
}

func (c *Cache) get(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return nil
}

func (c *Cache) generation(ctx context.Context, key Key) (int64, error) {
	gen, err := c.client.Get(ctx, key.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// setIfCurrent stores v only while the scope is still at generation gen.
// An invalidation that lands between the check and the write aborts the
// transaction, so a value loaded before an invalidation is never stored.
func (c *Cache) setIfCurrent(ctx context.Context, key Key, gen int64, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal cached value failed: %w", err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key.genKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key.String(), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, key.genKey())
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}
	return stored, nil
}

// Fetch returns the cached value under key or calls load, stores its result
// and returns it. Concurrent misses for one key share a single load. A result
// loaded while the key's scope was invalidated is returned but not stored.
// Redis errors are logged and fall through to load.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	l := logging.FromContext(ctx).With("component", "cache", "key", key.String())

	gen, err := c.generation(ctx, key)
	if err != nil {
		l.Warn("cache_get_error", "error", err)
		return load(ctx)
	}

	v, err, _ := c.sfg.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		var cached T
		err := c.get(ctx, key.String(), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			l.Warn("cache_get_error", "error", err)
		}

		fresh, err := load(ctx)
		if err != nil {
			return fresh, err
		}
		stored, err := c.setIfCurrent(ctx, key, gen, fresh)
		if err != nil {
			l.Warn("cache_set_error", "error", err)
		} else if !stored {
			l.Debug("cache_set_skipped", "reason", "invalidated during load")
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// invalidate bumps the scope's generation before deleting its keys, so loads
// already in flight cannot write their results back.
func (c *Cache) invalidate(ctx context.Context, scope string) error {
	if err := c.client.Incr(ctx, genKey(scope)).Err(); err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	return c.deletePrefix(ctx, scope+":")
}

func (c *Cache) deletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// InvalidateMenu drops every cached menu of the restaurant.
func (c *Cache) InvalidateMenu(ctx context.Context, slug string) error {
	if c == nil {
		return nil
	}
	return c.invalidate(ctx, menuScope(slug))
}

// InvalidateOrders drops every cached order history page of the CPF.
func (c *Cache) InvalidateOrders(ctx context.Context, cpf string) error {
	if c == nil {
		return nil
	}
	return c.invalidate(ctx, ordersScope(cpf))
}
