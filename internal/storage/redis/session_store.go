package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/ilindan-dev/sms-sender-bot/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"time"
)

var _ repo.SessionStore = (*SessionStore)(nil)

// SessionStore persists conversation sessions so they survive bot restarts.
// Every Save refreshes the TTL; an abandoned conversation expires back to idle.
type SessionStore struct {
	redis  goredis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSessionStore(redis goredis.Cmdable, ttl time.Duration, logger *zerolog.Logger) *SessionStore {
	return &SessionStore{
		redis:  redis,
		ttl:    ttl,
		logger: logger.With().Str("layer", "redis_sessions").Logger(),
	}
}

func (s *SessionStore) Get(ctx context.Context, chatID int64) (*model.Session, error) {
	key := keybuilder.RedisSessionKeyBuild(chatID)
	val, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.NewSession(chatID), nil
		}
		return nil, fmt.Errorf("redis: get session %d: %w", chatID, err)
	}

	var session model.Session
	if err := json.Unmarshal(val, &session); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dropping unreadable session")
		return model.NewSession(chatID), nil
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *model.Session) error {
	session.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, keybuilder.RedisSessionKeyBuild(session.ChatID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save session %d: %w", session.ChatID, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.redis.Del(ctx, keybuilder.RedisSessionKeyBuild(chatID)).Err(); err != nil {
		return fmt.Errorf("redis: delete session %d: %w", chatID, err)
	}
	return nil
}
