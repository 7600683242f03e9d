package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"printquote/backend/internal/option"
	"printquote/backend/internal/quote"
)

const (
	evaluationPrefix = "eval:"
	quotePrefix      = "quote:"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string, password string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetEvaluation(ctx context.Context, key string) (*option.Resolution, bool, error) {
	return getJSON[option.Resolution](ctx, c.client, evaluationPrefix+key)
}

func (c *RedisCache) SetEvaluation(ctx context.Context, key string, value *option.Resolution, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	return setJSON(ctx, c.client, evaluationPrefix+key, value, ttl)
}

func (c *RedisCache) GetQuote(ctx context.Context, quoteID string) (*quote.Quote, bool, error) {
	return getJSON[quote.Quote](ctx, c.client, quotePrefix+quoteID)
}

func (c *RedisCache) SetQuote(ctx context.Context, value *quote.Quote, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	return setJSON(ctx, c.client, quotePrefix+value.QuoteID, value, ttl)
}

func getJSON[T any](ctx context.Context, client *redis.Client, key string) (*T, bool, error) {
	val, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var out T
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, payload, ttl).Err()
}
