package service

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/ilindan-dev/sms-sender-bot/internal/metrics"
	"github.com/ilindan-dev/sms-sender-bot/internal/notifiers"
	"github.com/rs/zerolog"
	"sync"
)

// BulkProcessor sends a bulk job and delivers its report.
// The bot process and the queue worker share it.
type BulkProcessor struct {
	messages *MessageService
	notifier notifiers.Notifier
	logger   zerolog.Logger
}

func NewBulkProcessor(messages *MessageService, notifier notifiers.Notifier, logger *zerolog.Logger) *BulkProcessor {
	return &BulkProcessor{
		messages: messages,
		notifier: notifier,
		logger:   logger.With().Str("component", "bulk_processor").Logger(),
	}
}

// Process runs the job to completion and notifies the operator.
func (p *BulkProcessor) Process(ctx context.Context, job *model.BulkJob) error {
	report := p.messages.SendBulk(ctx, job)
	if err := p.notifier.Notify(context.WithoutCancel(ctx), report); err != nil {
		metrics.IncBulkJob("failed")
		p.logger.Error().Err(err).Stringer("job_id", job.ID).Msg("failed to deliver bulk report")
		return fmt.Errorf("deliver report for job %s: %w", job.ID, err)
	}
	metrics.IncBulkJob("completed")
	return nil
}

// BulkRunner accepts confirmed bulk jobs from the chat layer.
type BulkRunner interface {
	Submit(ctx context.Context, job *model.BulkJob) error
}

// InlineRunner processes jobs on goroutines owned by the bot process.
type InlineRunner struct {
	processor *BulkProcessor
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex // guards the stopped check and wg.Add against Stop
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

var _ BulkRunner = (*InlineRunner)(nil)

func NewInlineRunner(processor *BulkProcessor, logger *zerolog.Logger) *InlineRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &InlineRunner{
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With().Str("component", "inline_bulk_runner").Logger(),
	}
}

// Submit starts the job in the background; the caller's context only bounds the hand-off.
func (r *InlineRunner) Submit(ctx context.Context, job *model.BulkJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("bulk runner stopped: %w", err)
	}
	metrics.IncBulkJob("submitted")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.processor.Process(r.ctx, job); err != nil {
			r.logger.Error().Err(err).Msg("inline bulk job failed")
		}
	}()
	return nil
}

// Stop aborts running jobs between sends and waits for them to finish.
func (r *InlineRunner) Stop() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

// QueueRunner hands jobs to the worker process through a queue.
type QueueRunner struct {
	queue  repo.BulkQueue
	logger zerolog.Logger
}

var _ BulkRunner = (*QueueRunner)(nil)

func NewQueueRunner(queue repo.BulkQueue, logger *zerolog.Logger) *QueueRunner {
	return &QueueRunner{
		queue:  queue,
		logger: logger.With().Str("component", "queue_bulk_runner").Logger(),
	}
}

func (r *QueueRunner) Submit(ctx context.Context, job *model.BulkJob) error {
	if err := r.queue.Publish(ctx, job); err != nil {
		r.logger.Error().Err(err).Stringer("job_id", job.ID).Msg("failed to publish bulk job")
		return fmt.Errorf("publish bulk job: %w", err)
	}
	metrics.IncBulkJob("submitted")
	r.logger.Info().Stringer("job_id", job.ID).Int("numbers", len(job.Numbers)).Msg("bulk job published")
	return nil
}
