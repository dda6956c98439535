// Package redis adaptadores sobre Redis: caché de existencias y candado distribuido de despacho.
package redis

import (
	"context"
	"fmt"

	"github.com/jhoicas/bodegas-api/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient crea el cliente desde REDIS_URL y verifica la conexión.
// REDIS_PASSWORD y REDIS_DB sobreescriben lo que traiga la URL.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
