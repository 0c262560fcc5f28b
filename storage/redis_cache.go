package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Dosada05/dart-tournament/models"
)

const DefaultBracketCacheTTL = 30 * time.Second

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// NewRedisClient accepts either a redis:// URL or a bare host:port address.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis address is required")
	}
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		if cfg.DB != 0 {
			opts.DB = cfg.DB
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// RedisBracketCache stores assembled brackets as JSON under bracket:{tournamentID}.
type RedisBracketCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBracketCache(client *redis.Client, ttl time.Duration) *RedisBracketCache {
	if ttl <= 0 {
		ttl = DefaultBracketCacheTTL
	}
	return &RedisBracketCache{client: client, ttl: ttl}
}

func bracketKey(tournamentID int) string {
	return fmt.Sprintf("bracket:%d", tournamentID)
}

func (c *RedisBracketCache) Get(ctx context.Context, tournamentID int) (*models.Bracket, bool, error) {
	raw, err := c.client.Get(ctx, bracketKey(tournamentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached bracket %d: %w", tournamentID, err)
	}
	var b models.Bracket
	if err := json.Unmarshal(raw, &b); err != nil {
		// a corrupt entry is dropped and treated as a miss
		_ = c.client.Del(ctx, bracketKey(tournamentID)).Err()
		return nil, false, nil
	}
	return &b, true, nil
}

func (c *RedisBracketCache) Set(ctx context.Context, tournamentID int, bracket *models.Bracket) error {
	raw, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to encode bracket %d: %w", tournamentID, err)
	}
	if err := c.client.Set(ctx, bracketKey(tournamentID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache bracket %d: %w", tournamentID, err)
	}
	return nil
}

func (c *RedisBracketCache) Invalidate(ctx context.Context, tournamentID int) error {
	if err := c.client.Del(ctx, bracketKey(tournamentID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate bracket %d: %w", tournamentID, err)
	}
	return nil
}

func (c *RedisBracketCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
