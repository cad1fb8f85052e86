package messaging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	memoryQueueSize   = 256
	memoryMaxAttempts = 5
)

// Memory is an in-process broker. Groups are durable for the life of the
// broker; a consumer without a group gets a private queue that is dropped
// when Consume returns. A nacked message is redelivered until it reaches
// memoryMaxAttempts.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[string]chan *memoryMessage
	closed bool
	done   chan struct{}
	once   sync.Once

	seq atomic.Uint64
}

type memoryMessage struct {
	id      string
	body    []byte
	headers map[string]string
	attempt int
}

func NewMemory() *Memory {
	return &Memory{
		topics: map[string]map[string]chan *memoryMessage{},
		done:   make(chan struct{}),
	}
}

func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return io.ErrClosedPipe
	}

	id := strconv.FormatUint(m.seq.Add(1), 10)
	headers := headerMap(msg.Headers)
	for _, q := range m.topics[topic] {
		mm := &memoryMessage{id: id, body: append([]byte(nil), msg.Body...), headers: headers, attempt: 1}
		select {
		case q <- mm:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return io.ErrClosedPipe
		}
	}
	return nil
}

func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	group, private := co.group, co.group == ""
	if private {
		group = "_private." + strconv.FormatUint(m.seq.Add(1), 10)
	}

	q, err := m.join(topic, group)
	if err != nil {
		return err
	}
	if private {
		defer m.leave(topic, group)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan *delivery)
	wg := runWorkers(ctx, DriverMemory, co.concurrency, in, handler, co.autoAck)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-m.done:
			break loop
		case mm := <-q:
			select {
			case in <- m.delivery(ctx, topic, q, mm):
			case <-ctx.Done():
				break loop
			case <-m.done:
				break loop
			}
		}
	}

	cancel()
	close(in)
	wg.Wait()
	return nil
}

func (m *Memory) delivery(ctx context.Context, topic string, q chan *memoryMessage, mm *memoryMessage) *delivery {
	return &delivery{
		id:      mm.id,
		topic:   topic,
		body:    mm.body,
		headers: mm.headers,
		ack:     func() error { return nil },
		nack: func() error {
			if mm.attempt >= memoryMaxAttempts {
				slog.WarnContext(ctx, "messaging: memory message dropped", "topic", topic, "id", mm.id, "attempts", mm.attempt)
				return nil
			}
			next := *mm
			next.attempt++
			go func() {
				select {
				case q <- &next:
				case <-m.done:
				}
			}()
			return nil
		},
	}
}

func (m *Memory) join(topic, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, io.ErrClosedPipe
	}

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]chan *memoryMessage{}
		m.topics[topic] = groups
	}
	q, ok := groups[group]
	if !ok {
		q = make(chan *memoryMessage, memoryQueueSize)
		groups[group] = q
	}
	return q, nil
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.topics[topic], group)
}

// Close wakes publishers blocked on a full group queue before taking the
// write lock they hold readers on.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
