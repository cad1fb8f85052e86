// Package messaging publishes and consumes events through a pluggable broker.
//
// Business code depends on Publisher and Consumer only. The driver (NATS,
// NSQ, Kafka, Google Pub/Sub or the in-process memory broker) is chosen by
// configuration through NewFromDriver.
package messaging

import (
	"context"
	"errors"
	"io"
)

// HeaderCorrelationID carries the request correlation id across a hop.
const HeaderCorrelationID = "cID"

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
)

type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer blocks in Consume until ctx is cancelled or the broker fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. With auto-ack (the default) a nil return
// acks the message and an error nacks it.
type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	Body []byte
	// Key selects the Kafka partition; other drivers ignore it.
	Key     []byte
	Headers []Header
}

type Header struct {
	Key   string
	Value string
}

// Message is a received message.
type Message interface {
	ID() string
	Topic() string
	Body() []byte
	// Header returns the first value for key, or "".
	Header(key string) string
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
