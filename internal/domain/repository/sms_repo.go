package repository

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateRecord is returned when a record with the same ID already exists.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// SendRecordRepository defines the contract for send history persistence.
type SendRecordRepository interface {
	// Save persists a new send record.
	Save(ctx context.Context, r *model.SendRecord) error

	// GetByID retrieves a send record by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.SendRecord, error)

	// ListByJob returns the records of a bulk job in send order.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.SendRecord, error)
}

// SendRecordCache defines the contract for a caching layer in front of the history.
type SendRecordCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.SendRecord, error)
	Set(ctx context.Context, r *model.SendRecord, expiration time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionStore keeps conversation sessions keyed by chat id.
// Get returns a fresh idle session when none is stored.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, chatID int64) error
}

// BulkQueue defines the contract for handing bulk jobs to a background worker.
type BulkQueue interface {
	Publish(ctx context.Context, job *model.BulkJob) error
}
