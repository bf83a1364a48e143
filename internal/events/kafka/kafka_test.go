package kafka

import (
	"context"
	"errors"
	"testing"

	"invoicepro/internal/events"
)

func TestNewPublisherConfig(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092", "localhost:9093"}, "records")
	defer p.Close()

	if p.writer.Topic != "records" {
		t.Errorf("topic = %q", p.writer.Topic)
	}
	if got := p.writer.Addr.String(); got != "localhost:9092,localhost:9093" {
		t.Errorf("addr = %q", got)
	}
}

func TestConsumeStopsOnCancelledContext(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "records", "invoicepro-worker")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Consume(ctx, func(context.Context, events.Message) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
