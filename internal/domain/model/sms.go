package model

import (
	"github.com/google/uuid"
	"time"
)

// ErrorKind tags a failed send with its place in the error taxonomy.
type ErrorKind string

const (
	KindInput        ErrorKind = "input"        // Empty message or malformed address. Never retried.
	KindConnectivity ErrorKind = "connectivity" // Pre-send probe failed. The provider is not contacted.
	KindAuth         ErrorKind = "auth"         // Provider rejected the credentials.
	KindDestination  ErrorKind = "destination"  // Provider rejected the destination address.
	KindRateLimit    ErrorKind = "rate_limit"   // Quota or throttling, retried up to the attempt budget.
	KindTransport    ErrorKind = "transport"    // Network error during the provider call, retried.
	KindProvider     ErrorKind = "provider"     // Any other provider or unexpected error.
	KindExhausted    ErrorKind = "exhausted"    // Attempt budget spent without a terminal classification.
)

// SendResult is the only output of a send. Success means the provider accepted
// the payload for delivery, not that the handset received it.
type SendResult struct {
	Success  bool
	Detail   string
	Kind     ErrorKind // Empty on success.
	Attempts int       // Provider calls made.
}

// Mark returns the status glyph used when results are rendered to the operator.
func (r SendResult) Mark() string {
	if r.Success {
		return "✅"
	}
	return "❌"
}

// SendRecord is the persisted trace of one send performed on behalf of an operator.
type SendRecord struct {
	ID          uuid.UUID
	JobID       *uuid.UUID // Set when the send belongs to a bulk job.
	ChatID      int64
	Destination string
	Success     bool
	Detail      string
	Kind        ErrorKind
	Attempts    int
	CreatedAt   time.Time
}

// NewSendRecord builds a record for the given result.
func NewSendRecord(chatID int64, jobID *uuid.UUID, destination string, res SendResult) *SendRecord {
	return &SendRecord{
		ID:          uuid.New(),
		JobID:       jobID,
		ChatID:      chatID,
		Destination: destination,
		Success:     res.Success,
		Detail:      res.Detail,
		Kind:        res.Kind,
		Attempts:    res.Attempts,
		CreatedAt:   time.Now().UTC(),
	}
}
