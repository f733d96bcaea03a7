package keybuilder

import (
	"fmt"
	"github.com/google/uuid"
)

const (
	Redis     string = "redis"
	Record    string = "sms_record"
	Session   string = "session"
	RateLimit string = "ratelimit"
)

func RedisRecordKeyBuild(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", Redis, Record, id)
}

func RedisSessionKeyBuild(chatID int64) string {
	return fmt.Sprintf("%s:%s:%d", Redis, Session, chatID)
}

// RedisRateLimitKeyBuild keys a per-chat counter to the given fixed window.
func RedisRateLimitKeyBuild(chatID int64, window int64) string {
	return fmt.Sprintf("%s:%s:%d:%d", Redis, RateLimit, chatID, window)
}
