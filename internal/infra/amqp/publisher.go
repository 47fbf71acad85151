// Package amqp publishes assessment events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"assessment-service/internal/app"
)

// RoutingKeyScored is the routing key of app.AttemptScored events.
const RoutingKeyScored = "attempt.scored"

// channel is the slice of *amqp.Channel the publisher needs.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Publisher implements app.ResultPublisher.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      zerolog.Logger
}

// Dial connects to url and declares a durable topic exchange.
func Dial(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := newPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log zerolog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log.With().Str("component", "amqp").Logger()}
}

func (p *Publisher) PublishScored(ctx context.Context, e app.AttemptScored) error {
	return p.publish(ctx, RoutingKeyScored, e)
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	err = p.ch.Publish(p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.log.Debug().Str("event", eventType).Int("bytes", len(body)).Msg("event published")
	return nil
}

func (p *Publisher) Close() error {
	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
