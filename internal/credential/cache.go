package credential

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"credchain/internal/eth"
)

// Cache stores immutable credential records by token id. Cache failures are
// never surfaced to callers; a miss just falls through to the ledger.
type Cache interface {
	GetCredential(ctx context.Context, tokenID string) (eth.Credential, bool)
	PutCredential(ctx context.Context, tokenID string, cred eth.Credential)
}

// NoopCache disables caching.
type NoopCache struct{}

func (NoopCache) GetCredential(context.Context, string) (eth.Credential, bool) {
	return eth.Credential{}, false
}

func (NoopCache) PutCredential(context.Context, string, eth.Credential) {}

// RedisCache keeps credential records in Redis. Records are immutable after
// mint, so a long TTL is safe; only the mutable owner field must never be
// cached, and it is not part of eth.Credential.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects using a redis URL (redis://...).
func NewRedisCache(url string, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{rdb: redis.NewClient(opts), ttl: 24 * time.Hour, logger: logger}, nil
}

func (c *RedisCache) GetCredential(ctx context.Context, tokenID string) (eth.Credential, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(tokenID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("credential cache read failed", "token_id", tokenID, "error", err)
		}
		return eth.Credential{}, false
	}
	var cred eth.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		c.logger.Debug("credential cache entry corrupt", "token_id", tokenID, "error", err)
		return eth.Credential{}, false
	}
	return cred, true
}

func (c *RedisCache) PutCredential(ctx context.Context, tokenID string, cred eth.Credential) {
	raw, err := json.Marshal(cred)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(tokenID), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("credential cache write failed", "token_id", tokenID, "error", err)
	}
}

func cacheKey(tokenID string) string {
	return "credential:" + tokenID
}
