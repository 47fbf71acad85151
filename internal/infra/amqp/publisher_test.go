package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishScored(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "assessment", zerolog.Nop())

	err := p.PublishScored(context.Background(), app.AttemptScored{
		ExamID: "e1", LearnerID: "l1", TotalScore: 72, MaxScore: 100, Percentage: 72, Passed: true,
		Grade: domain.GradeFor(72),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ch.exchange != "assessment" || ch.key != RoutingKeyScored || ch.msg.ContentType != "application/json" {
		t.Fatalf("unexpected publish %s/%s %s", ch.exchange, ch.key, ch.msg.ContentType)
	}

	var got struct {
		Type    string            `json:"type"`
		Payload app.AttemptScored `json:"payload"`
	}
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Type != RoutingKeyScored || got.Payload.ExamID != "e1" || got.Payload.Grade.Grade != "B" {
		t.Fatalf("unexpected body %+v", got)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Fatalf("close: %v closed=%v", err, ch.closed)
	}
}

func TestPublishScoredErrors(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := newPublisher(ch, "assessment", zerolog.Nop())
	if err := p.PublishScored(context.Background(), app.AttemptScored{}); !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected channel error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch.err = nil
	ch.key = ""
	if err := p.PublishScored(ctx, app.AttemptScored{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if ch.key != "" {
		t.Fatalf("cancelled publish reached the channel")
	}
}
