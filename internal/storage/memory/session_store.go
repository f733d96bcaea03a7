package memory

import (
	"context"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"sync"
	"time"
)

var _ repo.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in process memory with the same TTL semantics as the redis store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored session, or a new idle one when absent or expired.
func (s *SessionStore) Get(_ context.Context, chatID int64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[chatID]
	if !ok || (s.ttl > 0 && s.now().Sub(stored.UpdatedAt) > s.ttl) {
		delete(s.sessions, chatID)
		return model.NewSession(chatID), nil
	}
	return clone(stored), nil
}

func (s *SessionStore) Save(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := clone(session)
	c.UpdatedAt = s.now().UTC()
	s.sessions[session.ChatID] = c
	return nil
}

func (s *SessionStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

func clone(s *model.Session) *model.Session {
	c := *s
	c.Numbers = append([]string(nil), s.Numbers...)
	return &c
}
