// internal/infrastructure/messaging/rabbitmq/publisher.go
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/your-org/flowershop-backend/internal/config"
)

// Publisher publishes order lifecycle events to RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     *config.Config
}

type orderEvent struct {
	OrderID   uint      `json:"order_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPublisher connects to the broker and declares the queue topology
func NewPublisher(cfg *config.Config) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &Publisher{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
	}

	if err := p.setupQueues(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set up queues: %w", err)
	}

	return p, nil
}

func (p *Publisher) setupQueues() error {
	// Dead letter exchange and queue
	if err := p.channel.ExchangeDeclare(
		p.cfg.RabbitMQ.DeadLetterQueue+"_exchange",
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := p.channel.QueueDeclare(
		p.cfg.RabbitMQ.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if err := p.channel.QueueBind(
		p.cfg.RabbitMQ.DeadLetterQueue,
		"",
		p.cfg.RabbitMQ.DeadLetterQueue+"_exchange",
		false,
		nil,
	); err != nil {
		return err
	}

	// Main order exchange
	if err := p.channel.ExchangeDeclare(
		p.cfg.RabbitMQ.OrderExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	// Main order queue with dead lettering
	if _, err := p.channel.QueueDeclare(
		p.cfg.RabbitMQ.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    p.cfg.RabbitMQ.DeadLetterQueue + "_exchange",
			"x-dead-letter-routing-key": p.cfg.RabbitMQ.DeadLetterQueue,
		},
	); err != nil {
		return err
	}

	return p.channel.QueueBind(
		p.cfg.RabbitMQ.OrderQueue,
		"",
		p.cfg.RabbitMQ.OrderExchange,
		false,
		nil,
	)
}

// PublishOrderEvent publishes an order lifecycle event
func (p *Publisher) PublishOrderEvent(orderID uint, eventType string) error {
	body, err := json.Marshal(orderEvent{
		OrderID:   orderID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.channel.Publish(
		p.cfg.RabbitMQ.OrderExchange,
		"",
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

// Close closes the channel and connection
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
