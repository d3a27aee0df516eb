package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/moralgraph-backend/internal/platform/envutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

// VectorCache stores embeddings keyed by an opaque string.
type VectorCache interface {
	GetVectors(ctx context.Context, keys []string) (map[string][]float32, error)
	SetVectors(ctx context.Context, entries map[string][]float32, ttl time.Duration) error
	Close() error
}

type Client struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewFromEnv returns nil, nil when REDIS_ADDR is unset.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	return New(log, envutil.String("REDIS_ADDR", ""))
}

func New(log *logger.Logger, addr string) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return Wrap(log, rdb), nil
}

// Wrap adopts an existing client.
func Wrap(log *logger.Logger, rdb *goredis.Client) *Client {
	return &Client{log: log.With("client", "Redis"), rdb: rdb}
}

func (c *Client) Redis() *goredis.Client { return c.rdb }

func (c *Client) GetVectors(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := map[string][]float32{}
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return out, nil
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok || raw == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			c.log.Warn("dropping undecodable cached vector", "key", keys[i], "error", err)
			continue
		}
		out[keys[i]] = vec
	}
	return out, nil
}

func (c *Client) SetVectors(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	if c == nil || c.rdb == nil || len(entries) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for k, vec := range entries {
		raw, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, k, raw, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
