package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Message is one outbox event ready to publish.
type Message struct {
	ID            string
	RoutingKey    string
	CorrelationID string
	Body          []byte
}

// Publisher delivers messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// RabbitMQ publishes messages to a durable topic exchange.
// Concurrency: publishing is serialized because an amqp.Channel is not safe
// for concurrent use.
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

var _ Publisher = (*RabbitMQ)(nil)

// NewRabbitMQ connects to uri and declares exchange.
func NewRabbitMQ(uri, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends msg as a persistent JSON message.
func (r *RabbitMQ) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.Publish(
		r.exchange,     // exchange
		msg.RoutingKey, // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			MessageId:     msg.ID,
			CorrelationId: msg.CorrelationID,
			Body:          msg.Body,
			DeliveryMode:  amqp.Persistent,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.ID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}
