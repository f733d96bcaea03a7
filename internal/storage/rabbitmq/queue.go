package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var _ repo.BulkQueue = (*BulkQueue)(nil)

// Topology of the bulk pipeline.
const (
	BulkExchange = "bulk.exchange"
	ProcessQueue = "bulk.queue.process"

	Direct = "direct"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// BulkQueue publishes confirmed bulk jobs for the worker.
type BulkQueue struct {
	ch     Channel
	logger zerolog.Logger
}

// NewBulkQueue opens a channel on the shared connection and declares the topology.
func NewBulkQueue(conn *amqp.Connection, logger *zerolog.Logger) (*BulkQueue, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}
	return newBulkQueue(channel, logger)
}

func newBulkQueue(ch Channel, logger *zerolog.Logger) (*BulkQueue, error) {
	q := &BulkQueue{
		ch:     ch,
		logger: logger.With().Str("component", "rabbitmq_publisher").Logger(),
	}
	if err := SetupTopology(ch); err != nil {
		q.logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}
	return q, nil
}

// SetupTopology declares the exchange and queue and binds them. It is idempotent,
// so both the publisher and the consumer call it.
func SetupTopology(ch Channel) error {
	if err := ch.ExchangeDeclare(BulkExchange, Direct, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", BulkExchange, err)
	}
	if _, err := ch.QueueDeclare(ProcessQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", ProcessQueue, err)
	}
	if err := ch.QueueBind(ProcessQueue, "", BulkExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", ProcessQueue, BulkExchange, err)
	}
	return nil
}

// Publish enqueues a job as a persistent JSON message.
func (q *BulkQueue) Publish(ctx context.Context, job *model.BulkJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal bulk job: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
	}
	return q.ch.PublishWithContext(ctx, BulkExchange, "", false, false, msg)
}

// Close shuts down the channel. The connection is managed by Fx.
func (q *BulkQueue) Close() error {
	if q.ch != nil {
		return q.ch.Close()
	}
	return nil
}
