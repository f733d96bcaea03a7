package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/ilindan-dev/sms-sender-bot/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"time"
)

var _ repo.SendRecordCache = (*RecordCache)(nil)

// RecordCache keeps recently written or read send records in redis as JSON.
type RecordCache struct {
	redis  goredis.Cmdable
	logger zerolog.Logger
}

func NewRecordCache(logger *zerolog.Logger, redis goredis.Cmdable) *RecordCache {
	return &RecordCache{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_cache").Logger(),
	}
}

func (c *RecordCache) Get(ctx context.Context, id uuid.UUID) (*model.SendRecord, error) {
	key := keybuilder.RedisRecordKeyBuild(id)
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.logger.Debug().Str("key", key).Str("cache", "miss").Msg("record not found in cache")
			return nil, repo.ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("failed to get key from redis")
		return nil, err
	}

	var rec model.SendRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to unmarshal record from cache")
		return nil, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return &rec, nil
}

func (c *RecordCache) Set(ctx context.Context, r *model.SendRecord, expiration time.Duration) error {
	key := keybuilder.RedisRecordKeyBuild(r.ID)
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := c.redis.Set(ctx, key, b, expiration).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set key in redis")
		return err
	}
	return nil
}

func (c *RecordCache) Delete(ctx context.Context, id uuid.UUID) error {
	key := keybuilder.RedisRecordKeyBuild(id)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
		return err
	}
	return nil
}
