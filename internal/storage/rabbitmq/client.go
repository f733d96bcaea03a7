package rabbitmq

import (
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewConnection dials the broker. The single connection is shared by the
// publisher in the bot process and the consumer in the worker.
func NewConnection(cfg *config.Config) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}
	return conn, nil
}
