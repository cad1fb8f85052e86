package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nsqio/go-nsq"
)

var ErrNSQAddrRequired = errors.New("messaging: nsq address is required")

type NSQConfig struct {
	// ProducerAddr is the nsqd used for publishing. Empty disables Publish.
	ProducerAddr string

	// Consumers connect through lookupd when set, otherwise directly to nsqd.
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
}

// NSQ has no message headers, so bodies travel inside an envelope.
type NSQ struct {
	producer *nsq.Producer

	nsqdAddrs    []string
	lookupdAddrs []string

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" && len(cfg.ConsumerNSQDAddrs) == 0 && len(cfg.ConsumerLookupdAddrs) == 0 {
		return nil, ErrNSQAddrRequired
	}

	n := &NSQ{
		nsqdAddrs:    cfg.ConsumerNSQDAddrs,
		lookupdAddrs: cfg.ConsumerLookupdAddrs,
	}

	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if n.producer == nil {
		return ErrNSQAddrRequired
	}

	body, err := encodeEnvelope(msg)
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}
	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	ccfg := nsq.NewConfig()
	ccfg.MaxInFlight = co.maxInFlight

	consumer, err := nsq.NewConsumer(topic, co.group, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		// Errors are already acted on through Finish/Requeue.
		_ = process(ctx, DriverNSQ, nsqDelivery(topic, m), handler, co.autoAck)
		return nil
	}), co.concurrency)

	if err := n.track(consumer); err != nil {
		return err
	}

	if len(n.lookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.lookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.nsqdAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
	case <-consumer.StopChan:
	}
	return nil
}

func nsqDelivery(topic string, m *nsq.Message) *delivery {
	body, headers := decodeEnvelope(m.Body)
	return &delivery{
		id:      string(m.ID[:]),
		topic:   topic,
		body:    body,
		headers: headers,
		ack:     func() error { m.Finish(); return nil },
		nack:    func() error { m.Requeue(-1); return nil },
	}
}

func (n *NSQ) track(c *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.consumers = append(n.consumers, c)
	return nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}
