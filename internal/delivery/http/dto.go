package http

import (
	"github.com/google/uuid"
	"time"
)

// SendMessageRequest is the body of POST /api/v1/messages.
// An empty message is not rejected here; it comes back as a failed send.
type SendMessageRequest struct {
	Destination string `json:"destination" binding:"required"`
	Message     string `json:"message"`
}

// SendResultResponse mirrors a send outcome. RecordID is omitted when the history could not be written.
type SendResultResponse struct {
	Success  bool       `json:"success"`
	Detail   string     `json:"detail"`
	Kind     string     `json:"kind,omitempty"`
	Attempts int        `json:"attempts"`
	RecordID *uuid.UUID `json:"record_id,omitempty"`
}

// SendRecordResponse is a stored send record.
type SendRecordResponse struct {
	ID          uuid.UUID  `json:"id"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	ChatID      int64      `json:"chat_id,omitempty"`
	Destination string     `json:"destination"`
	Success     bool       `json:"success"`
	Detail      string     `json:"detail"`
	Kind        string     `json:"kind,omitempty"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
