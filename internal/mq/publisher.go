package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// IngestedEvent is published after a day's readings were persisted, so
// downstream consumers (alerting, exports) can react without polling.
type IngestedEvent struct {
	GSRN            string `json:"gsrn"`
	Date            string `json:"date"` // YYYY-MM-DD
	ReadingTypeCode string `json:"reading_type_code"`
	Inserted        int64  `json:"inserted"`
}

// Publisher publishes ingest events to a topic exchange
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher connects to RabbitMQ, declares the exchange and ties the
// connection to the fx lifecycle
func NewPublisher(lc fx.Lifecycle, logger *zap.Logger, url, exchange, routingKey string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("[RABBITMQ CONNECTION FAILED] cannot connect to RabbitMQ, check that it is running and RABBITMQ_URL is correct: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("rabbitmq publisher ready", zap.String("exchange", exchange))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return p.Close()
		},
	})

	return p, nil
}

// PublishIngestedEvent publishes one ingest event. Safe to call on a nil
// publisher, which is how deployments without a broker run.
func (p *Publisher) PublishIngestedEvent(ctx context.Context, event IngestedEvent) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published ingest event",
		zap.String("routing_key", p.routingKey),
		zap.String("gsrn", event.GSRN),
		zap.String("date", event.Date),
		zap.Int64("inserted", event.Inserted),
	)

	return nil
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
