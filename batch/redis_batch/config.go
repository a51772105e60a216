package redis_batch

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type ConnConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	// DialTimeoutSeconds bounds connection setup.
	DialTimeoutSeconds int `json:"dial_timeout_seconds" yaml:"dial_timeout_seconds"`
}

func (c *ConnConfig) WithDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.DialTimeoutSeconds <= 0 {
		c.DialTimeoutSeconds = 5
	}
}

func (c ConnConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ConnConfig) options() *redis.Options {
	return &redis.Options{
		Addr:        c.addr(),
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: time.Duration(c.DialTimeoutSeconds) * time.Second,
		PoolSize:    1,
	}
}

// open returns a client that has answered PING, so a bad address or
// password fails here rather than halfway through a write.
func open(ctx context.Context, cfg ConnConfig) (*redis.Client, error) {
	cfg.WithDefaults()
	rdb := redis.NewClient(cfg.options())
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.addr(), err)
	}
	return rdb, nil
}

// scanKeys collects every key matching pattern. SCAN may repeat a key, the
// result does not.
func scanKeys(ctx context.Context, rdb *redis.Client, pattern string, count int) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	iter := rdb.Scan(ctx, 0, pattern, int64(count)).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("SCAN %s: %w", pattern, err)
	}
	return keys, nil
}
