// Package cache holds the Redis-backed replay cache for succeeded mutations.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/economy-api/internal/config"
	domainRepo "github.com/sangkips/economy-api/internal/domain/repository"
)

const (
	fieldHash         = "hash"
	fieldCode         = "code"
	fieldBody         = "body"
	fieldResourceType = "resource_type"
	fieldResourceID   = "resource_id"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type replayCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewReplayCache stores replays as hashes under prefix. The body is kept as a raw hash
// field so the bytes handed back are exactly the bytes stored.
func NewReplayCache(client redis.UniversalClient, prefix string, ttl time.Duration) domainRepo.ReplayCache {
	return &replayCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *replayCache) key(scope, key string) string {
	return c.prefix + scope + ":" + key
}

func (c *replayCache) Get(ctx context.Context, scope, key string) (*domainRepo.CachedReplay, error) {
	values, err := c.client.HGetAll(ctx, c.key(scope, key)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	code, err := strconv.Atoi(values[fieldCode])
	if err != nil {
		return nil, fmt.Errorf("corrupt replay entry for %s/%s: %w", scope, key, err)
	}
	return &domainRepo.CachedReplay{
		RequestHash:  values[fieldHash],
		ResponseCode: code,
		ResponseBody: []byte(values[fieldBody]),
		ResourceType: values[fieldResourceType],
		ResourceID:   values[fieldResourceID],
	}, nil
}

func (c *replayCache) Put(ctx context.Context, scope, key string, replay *domainRepo.CachedReplay) error {
	k := c.key(scope, key)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, k, map[string]interface{}{
		fieldHash:         replay.RequestHash,
		fieldCode:         replay.ResponseCode,
		fieldBody:         replay.ResponseBody,
		fieldResourceType: replay.ResourceType,
		fieldResourceID:   replay.ResourceID,
	})
	if c.ttl > 0 {
		pipe.Expire(ctx, k, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
