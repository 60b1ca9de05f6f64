package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Order event types
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

// OrderEvent is the message published after an order lifecycle change commits
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    uint               `json:"order_id"`
	UserID     string             `json:"user_id"`
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	Status     models.OrderStatus `json:"status"`
	BookID     uint               `json:"book_id,omitempty"`
	CopyID     uint               `json:"copy_id,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventPublisher sends order events to interested consumers
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// RabbitMQPublisher publishes order events to a durable queue
type RabbitMQPublisher struct {
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the events queue
func NewRabbitMQPublisher(rabbitURL, queueName string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log.Printf("Publishing order events to RabbitMQ queue '%s'", queueName)

	return &RabbitMQPublisher{connection: conn, channel: ch, queueName: queueName}, nil
}

// Publish encodes the event as JSON and sends it as a persistent message
func (p *RabbitMQPublisher) Publish(ctx context.Context, event OrderEvent) error {
	msg, err := newEventMessage(event)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Publish("", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing channel: %w", err))
		}
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ publisher: %v", errs)
	}
	return nil
}

func newEventMessage(event OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode %s: %w", event.Type, err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}, nil
}

// NoopPublisher drops every event; used when RABBITMQ_URL is not set
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// MockPublisher records published events for test assertions
type MockPublisher struct {
	mu     sync.Mutex
	Events []OrderEvent
	Err    error
}

func (m *MockPublisher) Publish(ctx context.Context, event OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error { return nil }

// Types returns the type of each published event in order
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}
