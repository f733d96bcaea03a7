package memory

import (
	"context"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"sync"
)

var _ repo.SendRecordRepository = (*RecordRepository)(nil)

// RecordRepository is the send history used when no database is configured.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*model.SendRecord
	order   []uuid.UUID
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[uuid.UUID]*model.SendRecord)}
}

func (r *RecordRepository) Save(_ context.Context, rec *model.SendRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; ok {
		return repo.ErrDuplicateRecord
	}
	c := *rec
	r.records[rec.ID] = &c
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *RecordRepository) GetByID(_ context.Context, id uuid.UUID) (*model.SendRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *rec
	return &c, nil
}

func (r *RecordRepository) ListByJob(_ context.Context, jobID uuid.UUID) ([]*model.SendRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.SendRecord
	for _, id := range r.order {
		rec := r.records[id]
		if rec.JobID != nil && *rec.JobID == jobID {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}
