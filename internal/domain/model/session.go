package model

import "time"

// State is the position of a chat in the bulk-send conversation.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingNumbers      State = "awaiting_numbers"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// Session is the per-chat conversation data kept between updates.
type Session struct {
	ChatID         int64     `json:"chat_id"`
	State          State     `json:"state"`
	Message        string    `json:"message,omitempty"`         // Confirmed operator message.
	PendingMessage string    `json:"pending_message,omitempty"` // Awaiting confirm_message.
	PendingNumber  string    `json:"pending_number,omitempty"`  // Awaiting confirm_send.
	PendingText    string    `json:"pending_text,omitempty"`    // Message captured with PendingNumber.
	Numbers        []string  `json:"numbers,omitempty"`         // Validated bulk destinations.
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSession returns an idle session for the chat.
func NewSession(chatID int64) *Session {
	return &Session{
		ChatID:    chatID,
		State:     StateIdle,
		UpdatedAt: time.Now().UTC(),
	}
}

// MessageOr returns the confirmed message, falling back to def.
func (s *Session) MessageOr(def string) string {
	if s.Message != "" {
		return s.Message
	}
	return def
}
