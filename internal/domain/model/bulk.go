package model

import (
	"fmt"
	"github.com/google/uuid"
	"strings"
	"time"
)

// BulkJob is a confirmed request to send one message to many destinations,
// in the order the operator supplied them.
type BulkJob struct {
	ID        uuid.UUID `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Numbers   []string  `json:"numbers"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBulkJob is a factory function for a bulk job created from a chat.
func NewBulkJob(chatID int64, numbers []string, message string) *BulkJob {
	return &BulkJob{
		ID:        uuid.New(),
		ChatID:    chatID,
		Numbers:   append([]string(nil), numbers...),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// BulkItem pairs a destination with the outcome of its send.
type BulkItem struct {
	Destination string
	Result      SendResult
}

// BulkReport collects the results of a bulk job.
type BulkReport struct {
	JobID  uuid.UUID
	ChatID int64
	Items  []BulkItem
}

// Succeeded counts accepted sends.
func (r *BulkReport) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Result.Success {
			n++
		}
	}
	return n
}

// Text renders the report the way it is shown to the operator.
func (r *BulkReport) Text() string {
	var b strings.Builder
	b.WriteString("SMS Sending Results:")
	for _, it := range r.Items {
		fmt.Fprintf(&b, "\n%s %s: %s", it.Result.Mark(), it.Destination, it.Result.Detail)
	}
	return b.String()
}

// SplitText cuts text into chunks of at most limit runes.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
