package redis_batch

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type ConnConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (c *ConnConfig) WithDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:6379"
	}
}

type SinkConfig struct {
	KeyPrefix string `json:"key_prefix"`
	Replace   bool   `json:"replace"`
	BatchSize int    `json:"batch_size"`
	ScanCount int64  `json:"scan_count"`
}

func (c *SinkConfig) WithDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "brc:station:"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
	if c.ScanCount <= 0 {
		c.ScanCount = 1000
	}
}

// Open connects to Redis and checks the connection with PING.
func Open(ctx context.Context, cfg ConnConfig) (*redis.Client, error) {
	cfg.WithDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
