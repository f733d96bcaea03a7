package service

import (
	"context"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/rs/zerolog"
)

// MessageService is what the chat and HTTP layers talk to.
// It runs sends through the Dispatcher and keeps their history.
type MessageService struct {
	dispatcher *Dispatcher
	repo       repo.SendRecordRepository
	logger     zerolog.Logger
}

func NewMessageService(dispatcher *Dispatcher, repo repo.SendRecordRepository, logger *zerolog.Logger) *MessageService {
	return &MessageService{
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger.With().Str("layer", "service").Logger(),
	}
}

// ValidateAddress lets callers pre-filter numbers before asking for confirmation.
func (s *MessageService) ValidateAddress(address string) bool {
	return s.dispatcher.ValidateAddress(address)
}

// SendOne sends a single message and records the outcome.
// The returned id is uuid.Nil when the history could not be written.
func (s *MessageService) SendOne(ctx context.Context, chatID int64, destination, message string) (model.SendResult, uuid.UUID) {
	res := s.dispatcher.Send(ctx, destination, message)
	return res, s.record(ctx, chatID, nil, destination, res)
}

// SendBulk sends the job's message to every number, one at a time and in order.
// A cancelled context stops the loop between sends; the report then holds the completed part.
func (s *MessageService) SendBulk(ctx context.Context, job *model.BulkJob) *model.BulkReport {
	log := s.logger.With().Stringer("job_id", job.ID).Logger()
	log.Info().Int("numbers", len(job.Numbers)).Msg("starting bulk send")

	report := &model.BulkReport{JobID: job.ID, ChatID: job.ChatID, Items: make([]model.BulkItem, 0, len(job.Numbers))}
	jobID := job.ID
	for i, number := range job.Numbers {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("sent", i).Msg("bulk send aborted")
			break
		}
		res := s.dispatcher.Send(ctx, number, job.Message)
		s.record(ctx, job.ChatID, &jobID, number, res)
		report.Items = append(report.Items, model.BulkItem{Destination: number, Result: res})
	}

	log.Info().Int("succeeded", report.Succeeded()).Int("total", len(report.Items)).Msg("bulk send finished")
	return report
}

// GetRecord retrieves a send record by its ID.
func (s *MessageService) GetRecord(ctx context.Context, id uuid.UUID) (*model.SendRecord, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Stringer("id", id).Msg("failed to get send record")
		return nil, err
	}
	return r, nil
}

// ListJob returns the records of a bulk job.
func (s *MessageService) ListJob(ctx context.Context, jobID uuid.UUID) ([]*model.SendRecord, error) {
	return s.repo.ListByJob(ctx, jobID)
}

func (s *MessageService) record(ctx context.Context, chatID int64, jobID *uuid.UUID, destination string, res model.SendResult) uuid.UUID {
	rec := model.NewSendRecord(chatID, jobID, destination, res)
	// A history failure never changes what the operator is told.
	if err := s.repo.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error().Err(err).Str("to", destination).Msg("failed to save send record")
		return uuid.Nil
	}
	return rec.ID
}
