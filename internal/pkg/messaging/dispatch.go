package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/shandysiswandi/quill/internal/pkg/stacktrace"
)

// delivery adapts a broker message. ack and nack run at most once in total.
type delivery struct {
	id      string
	topic   string
	body    []byte
	headers map[string]string

	ack  func() error
	nack func() error

	responded atomic.Bool
}

func (d *delivery) ID() string    { return d.id }
func (d *delivery) Topic() string { return d.topic }
func (d *delivery) Body() []byte  { return d.body }

func (d *delivery) Header(key string) string {
	return d.headers[key]
}

func (d *delivery) Ack(ctx context.Context) error {
	return d.respond(ctx, d.ack)
}

func (d *delivery) Nack(ctx context.Context) error {
	return d.respond(ctx, d.nack)
}

func (d *delivery) respond(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || fn == nil {
		return nil
	}
	return fn()
}

func headerMap(hs []Header) map[string]string {
	if len(hs) == 0 {
		return nil
	}
	m := make(map[string]string, len(hs))
	for _, h := range hs {
		if h.Key == "" {
			continue
		}
		if _, dup := m[h.Key]; !dup {
			m[h.Key] = h.Value
		}
	}
	return m
}

// process runs handler for d, recovering panics, then applies the ack
// policy unless the handler already responded.
func process(ctx context.Context, driver string, d *delivery, handler Handler, autoAck bool) error {
	herr := callWithRecover(ctx, driver, func() error { return handler(ctx, d) })
	if !autoAck || d.responded.Load() {
		return herr
	}

	if herr != nil {
		if err := d.Nack(ctx); err != nil {
			slog.ErrorContext(ctx, "messaging: nack failed", "driver", driver, "topic", d.topic, "error", err)
		}
		return herr
	}

	return d.Ack(ctx)
}

func callWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return fn()
}

// runWorkers drains in with n workers until in is closed or ctx is done.
// Handler errors are logged; they never stop the consumer.
func runWorkers(ctx context.Context, driver string, n int, in <-chan *delivery, handler Handler, autoAck bool) *sync.WaitGroup {
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-in:
					if !ok {
						return
					}
					if err := process(ctx, driver, d, handler, autoAck); err != nil {
						slog.WarnContext(ctx, "messaging: handler failed", "driver", driver, "topic", d.topic, "id", d.id, "error", err)
					}
				}
			}
		})
	}
	return &wg
}

func validateConsume(ctx context.Context, topic string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
