// Package events carries "record created" notifications from the web
// server to the sheet mirror worker over AMQP or Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"invoicepro/internal/core"
)

var ErrInvalidMessage = errors.New("invalid event message")

// Message is a lightweight notification; the consumer fetches the full
// record from storage by ID.
type Message struct {
	Kind      core.RecordKind `json:"kind"`
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordCreated creates a message for a freshly stored record.
func NewRecordCreated(kind core.RecordKind, id string) Message {
	return Message{Kind: kind, ID: id, Version: 1, Timestamp: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes and checks a message body.
func FromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch m.Kind {
	case core.KindInvoice, core.KindTimeEntry:
	default:
		return Message{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	if m.ID == "" {
		return Message{}, fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	return m, nil
}

// Handler processes one message. Returning an error asks the broker to
// redeliver it.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, h Handler) error
	Close() error
}

// Noop drops every message. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, msg Message) error {
	slog.DebugContext(ctx, "No event broker configured, dropping message", "kind", msg.Kind, "id", msg.ID)
	return nil
}

func (Noop) Close() error { return nil }
