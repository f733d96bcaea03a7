package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
)

// defaultWorkerCount is the default number of worker goroutines in the pool.
const defaultWorkerCount = 2

// JobProcessor runs one bulk job to completion.
type JobProcessor interface {
	Process(ctx context.Context, job *model.BulkJob) error
}

// Acknowledger is the part of amqp.Delivery the handler settles a message with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consumer listens to the bulk queue and processes jobs using a pool of workers.
type Consumer struct {
	logger      zerolog.Logger
	conn        *amqp.Connection // Raw connection to create channels for each worker.
	processor   JobProcessor
	workerCount int
}

func New(logger *zerolog.Logger, conn *amqp.Connection, processor JobProcessor) *Consumer {
	return &Consumer{
		logger:      logger.With().Str("component", "consumer").Logger(),
		conn:        conn,
		processor:   processor,
		workerCount: defaultWorkerCount,
	}
}

// Start launches the worker pool. It blocks until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info().Int("count", c.workerCount).Msg("Starting worker pool")
	var wg sync.WaitGroup

	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	c.logger.Info().Msg("Consumer stopped")
}

func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	logger := c.logger.With().Int("worker_id", workerID).Logger()

	ch, err := c.conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open channel for worker")
		return
	}
	defer ch.Close()

	if err := rabbitmq.SetupTopology(ch); err != nil {
		logger.Error().Err(err).Msg("Failed to declare topology")
		return
	}
	// One job at a time per worker; a bulk job can take minutes.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error().Err(err).Msg("Failed to set QoS")
		return
	}

	msgs, err := ch.Consume(
		rabbitmq.ProcessQueue,
		fmt.Sprintf("worker-%d", workerID),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register a consumer")
		return
	}

	logger.Info().Msg("Worker is waiting for jobs")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker stopping due to context cancellation")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn().Msg("Message channel closed by RabbitMQ, worker stopping")
				return
			}
			c.handleMessage(ctx, msg.Body, msg, logger)
		}
	}
}

// handleMessage decodes and runs a job. Sends are never replayed: once the
// processor has run the message is acked even if the report could not be delivered.
func (c *Consumer) handleMessage(ctx context.Context, body []byte, ack Acknowledger, logger zerolog.Logger) {
	var job model.BulkJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal bulk job, rejecting")
		_ = ack.Nack(false, false)
		return
	}
	if err := validateJob(&job); err != nil {
		logger.Error().Err(err).Stringer("job_id", job.ID).Msg("Invalid bulk job, rejecting")
		_ = ack.Nack(false, false)
		return
	}

	log := logger.With().Stringer("job_id", job.ID).Int64("chat_id", job.ChatID).Logger()
	log.Info().Int("numbers", len(job.Numbers)).Msg("Processing bulk job")

	if err := c.processor.Process(ctx, &job); err != nil {
		log.Error().Err(err).Msg("Bulk job finished with errors")
	} else {
		log.Info().Msg("Bulk job completed")
	}
	_ = ack.Ack(false)
}

func validateJob(job *model.BulkJob) error {
	if len(job.Numbers) == 0 {
		return errors.New("job has no numbers")
	}
	if job.ChatID == 0 {
		return errors.New("job has no chat id")
	}
	return nil
}
