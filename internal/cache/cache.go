package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

// GraphCache stores built conversion graphs per scope.
type GraphCache interface {
	Get(ctx context.Context, scope model.Scope) (*unitgraph.Graph, error)
	Set(ctx context.Context, scope model.Scope, graph *unitgraph.Graph) error
	Invalidate(ctx context.Context, scope model.Scope) error
}

func key(scope model.Scope) string {
	return "unitgraph:" + scope.Key()
}

// NewGraphCache returns a Redis-backed cache when cfg.RedisAddr answers a ping,
// otherwise an in-process one.
func NewGraphCache(cfg *config.Config, logger *zap.Logger) GraphCache {
	if cfg.RedisAddr == "" {
		logger.Info("Redis not configured, using in-memory graph cache")
		return NewMemoryGraphCache(cfg.GraphCacheTTL)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, using in-memory graph cache",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		rdb.Close()
		return NewMemoryGraphCache(cfg.GraphCacheTTL)
	}

	logger.Info("Redis graph cache initialized",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
	)
	return NewRedisGraphCache(rdb, cfg.GraphCacheTTL, logger)
}

type memoryEntry struct {
	graph     *unitgraph.Graph
	expiresAt time.Time
}

// MemoryGraphCache keeps graphs in a map. Graphs are immutable so they are shared, not copied.
type MemoryGraphCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryGraphCache(ttl time.Duration) *MemoryGraphCache {
	return &MemoryGraphCache{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (c *MemoryGraphCache) Get(_ context.Context, scope model.Scope) (*unitgraph.Graph, error) {
	c.mu.RLock()
	entry, ok := c.data[key(scope)]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key(scope))
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry.graph, nil
}

func (c *MemoryGraphCache) Set(_ context.Context, scope model.Scope, graph *unitgraph.Graph) error {
	c.mu.Lock()
	c.data[key(scope)] = memoryEntry{graph: graph, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryGraphCache) Invalidate(_ context.Context, scope model.Scope) error {
	c.mu.Lock()
	delete(c.data, key(scope))
	c.mu.Unlock()
	return nil
}
