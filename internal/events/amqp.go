package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// AMQPPublisher sends events as persistent JSON messages to a durable
// direct exchange whose queue is bound under its own name.
type AMQPPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewAMQPPublisher(url, exchangeName, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	publisher := &AMQPPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := publisher.declare(); err != nil {
		publisher.Close()
		return nil, err
	}
	return publisher, nil
}

func (publisher *AMQPPublisher) declare() error {
	if err := publisher.channel.ExchangeDeclare(publisher.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}
	if _, err := publisher.channel.QueueDeclare(publisher.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}
	if err := publisher.channel.QueueBind(publisher.queueName, publisher.queueName, publisher.exchangeName, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}
	return nil
}

func (publisher *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	message, err := publishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// A channel must not be used for concurrent publishes.
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if err := publisher.channel.PublishWithContext(ctx, publisher.exchangeName, publisher.queueName, false, false, message); err != nil {
		return fmt.Errorf("publishing %s: %w", event.Type, err)
	}

	slog.DebugContext(ctx, "published event", "type", event.Type, "exchange", publisher.exchangeName)
	return nil
}

func publishing(event Event) (amqp091.Publishing, error) {
	body, err := event.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("encoding event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

func (publisher *AMQPPublisher) Close() error {
	if publisher.channel != nil {
		publisher.channel.Close()
	}
	if publisher.conn != nil {
		return publisher.conn.Close()
	}
	return nil
}

// Connect returns an AMQP publisher when url is set and a log publisher
// otherwise.
func Connect(url, exchangeName, queueName string) (Publisher, error) {
	if url == "" {
		return NewLogPublisher(nil), nil
	}
	return NewAMQPPublisher(url, exchangeName, queueName)
}
