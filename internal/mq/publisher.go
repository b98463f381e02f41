// Package mq publishes search analytics events to RabbitMQ.
package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

const (
	DefaultExchange = "civicmatch.analytics"

	RoutingSearch = "search.performed"
	RoutingClick  = "search.clicked"
)

// Channel is the subset of *amqp091.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher implements telemetry.AnalyticsSink by publishing JSON events.
type Publisher struct {
	conn     *amqp091.Connection
	channel  Channel
	exchange string
}

// Dial connects to url, declares a durable topic exchange and returns a publisher on it.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := NewPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an already open channel.
func NewPublisher(ch Channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{channel: ch, exchange: exchange}
}

// Record publishes the event. Click events use RoutingClick, everything else RoutingSearch.
func (p *Publisher) Record(ctx context.Context, event *telemetry.AnalyticsEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode analytics event: %w", err)
	}

	key := RoutingSearch
	if event.ClickedProjectID != nil {
		key = RoutingClick
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		return fmt.Errorf("failed to publish analytics event: %w", err)
	}
	return nil
}

// Close closes the channel and, when dialed, the connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
