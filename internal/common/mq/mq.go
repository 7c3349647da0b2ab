package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "pos_events"

// Routing keys for till lifecycle events.
const (
	KeyOrderHeld        = "order.held"
	KeyHoldDeleted      = "order.hold_deleted"
	KeyInvoiceCreated   = "invoice.created"
	KeyInvoiceUpdated   = "invoice.updated"
	KeyPaymentCompleted = "payment.completed"
)

// Publisher emits lifecycle events. Publishing is best effort; callers log failures.
type Publisher interface {
	Publish(ctx context.Context, key string, payload interface{}) error
	Close()
}

// Event is the envelope every message is wrapped in.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Publish(ctx context.Context, key string, payload interface{}) error {
	body, err := json.Marshal(Event{
		ID:         uuid.NewString(),
		Type:       key,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	if err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close()                                             {}
