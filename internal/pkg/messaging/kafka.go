package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers []string
	// Dialer is used by readers; nil means kafka.DefaultDialer.
	Dialer *kafka.Dialer
}

// Kafka keeps one writer per topic. Commits are at-least-once: Nack leaves
// the offset uncommitted so the group replays from the last commit after a
// rebalance or restart.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	return &Kafka{cfg: cfg, writers: map[string]*kafka.Writer{}}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	w, err := k.writer(topic)
	if err != nil {
		return err
	}

	kmsg := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: h.Key, Value: []byte(h.Value)})
		}
	}

	if err := w.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka write: %w", err)
	}
	return nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:       k.cfg.Brokers,
		GroupID:       co.group,
		Topic:         topic,
		Dialer:        k.cfg.Dialer,
		MinBytes:      1,
		MaxBytes:      10e6,
		QueueCapacity: co.maxInFlight,
	})
	if err := k.track(r); err != nil {
		return errors.Join(err, r.Close())
	}

	in := make(chan *delivery)
	wg := runWorkers(ctx, DriverKafka, co.concurrency, in, handler, co.autoAck)

	var fetchErr error
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				fetchErr = fmt.Errorf("messaging: kafka fetch: %w", err)
			}
			break
		}

		select {
		case in <- kafkaDelivery(r, m):
			continue
		case <-ctx.Done():
		}
		break
	}

	close(in)
	wg.Wait()
	return fetchErr
}

func kafkaDelivery(r *kafka.Reader, m kafka.Message) *delivery {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		if _, dup := headers[h.Key]; !dup {
			headers[h.Key] = string(h.Value)
		}
	}

	return &delivery{
		id:      strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10),
		topic:   m.Topic,
		body:    m.Value,
		headers: headers,
		ack: func() error {
			return r.CommitMessages(context.Background(), m)
		},
		nack: func() error { return nil },
	}
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil, io.ErrClosedPipe
	}

	if w, ok := k.writers[topic]; ok {
		return w, nil
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers = append(k.readers, r)
	return nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := k.writers
	readers := k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var errs error
	for _, w := range writers {
		errs = errors.Join(errs, w.Close())
	}
	for _, r := range readers {
		errs = errors.Join(errs, r.Close())
	}
	return errs
}
