package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// RedisGraphCache stores a scope's edge list msgpack-encoded; the graph is rebuilt on read.
type RedisGraphCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisGraphCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisGraphCache {
	return &RedisGraphCache{client: client, ttl: ttl, logger: logger}
}

func encodeEdges(graph *unitgraph.Graph) ([]byte, error) {
	return msgpack.Marshal(graph.Edges())
}

func decodeEdges(raw []byte) (*unitgraph.Graph, error) {
	var edges []unitgraph.Edge
	if err := msgpack.Unmarshal(raw, &edges); err != nil {
		return nil, err
	}
	return unitgraph.New(edges)
}

func (c *RedisGraphCache) Get(ctx context.Context, scope model.Scope) (*unitgraph.Graph, error) {
	raw, err := c.client.Get(ctx, key(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.logger.Warn("Redis Get error", zap.String("key", key(scope)), zap.Error(err))
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	graph, err := decodeEdges(raw)
	if err != nil {
		// Treat undecodable entries as absent so the caller rebuilds from the store.
		c.logger.Warn("Dropping corrupt graph cache entry", zap.String("key", key(scope)), zap.Error(err))
		_ = c.client.Del(ctx, key(scope)).Err()
		return nil, ErrCacheMiss
	}
	return graph, nil
}

func (c *RedisGraphCache) Set(ctx context.Context, scope model.Scope, graph *unitgraph.Graph) error {
	raw, err := encodeEdges(graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := c.client.Set(ctx, key(scope), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Redis Set error", zap.String("key", key(scope)), zap.Error(err))
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (c *RedisGraphCache) Invalidate(ctx context.Context, scope model.Scope) error {
	if err := c.client.Del(ctx, key(scope)).Err(); err != nil {
		c.logger.Warn("Redis Delete error", zap.String("key", key(scope)), zap.Error(err))
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

func (c *RedisGraphCache) Close() error {
	return c.client.Close()
}
