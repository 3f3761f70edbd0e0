package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// keyPrefix is versioned so a change to the cart document shape strands old
// entries instead of failing to decode them.
const keyPrefix = "laya:cart:v1:"

type Options struct {
	// TTL is the minimum lifetime of a cached cart.
	TTL time.Duration
	// Jitter is the upper bound of the random extra lifetime added per entry.
	Jitter time.Duration
}

func DefaultOptions() Options {
	return Options{TTL: 15 * time.Minute, Jitter: 5 * time.Minute}
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	jitter time.Duration
}

func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.Jitter < 0 {
		opts.Jitter = 0
	}
	return &RedisCache{
		client: client,
		ttl:    opts.TTL,
		jitter: opts.Jitter,
	}
}

func (r *RedisCache) Get(ctx context.Context, owner string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart %q: %w", owner, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cached cart %q: %w", owner, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, owner string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %q: %w", owner, err)
	}

	if err := r.client.Set(ctx, cartKey(owner), payload, r.expiry()).Err(); err != nil {
		return fmt.Errorf("redis set cart %q: %w", owner, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete cart %q: %w", owner, err)
	}
	return nil
}

// expiry spreads lifetimes so carts cached in the same burst do not all miss at once.
func (r *RedisCache) expiry() time.Duration {
	if r.jitter == 0 {
		return r.ttl
	}
	return r.ttl + time.Duration(rand.Int63n(int64(r.jitter)+1))
}

func cartKey(owner string) string {
	return keyPrefix + owner
}
