package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"invoicepro/internal/events"
)

var (
	_ events.Publisher = (*Publisher)(nil)
	_ events.Consumer  = (*Consumer)(nil)
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Publish writes the message keyed by record ID so updates to the same
// record stay on one partition.
func (p *Publisher) Publish(ctx context.Context, msg events.Message) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: data,
		Time:  msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}

	slog.InfoContext(ctx, "Published record message", "kind", msg.Kind, "id", msg.ID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error { return p.writer.Close() }

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// Consume fetches messages and commits each one after h succeeds. A failed
// handler leaves the offset uncommitted so the message is redelivered after
// a restart.
func (c *Consumer) Consume(ctx context.Context, h events.Handler) error {
	slog.InfoContext(ctx, "Started consuming record messages", "topic", c.reader.Config().Topic)
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		msg, err := events.FromJSON(m.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err, "offset", m.Offset)
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				return fmt.Errorf("kafka commit: %w", err)
			}
			continue
		}

		if err := h(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle message", "error", err, "kind", msg.Kind, "id", msg.ID)
			return fmt.Errorf("handle %s %s: %w", msg.Kind, msg.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("kafka commit: %w", err)
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
