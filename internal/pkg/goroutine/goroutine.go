// Package goroutine runs background work with a concurrency cap, panic
// recovery and a single Wait that reports every task error.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/quill/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine scales the limit per CPU when NewManager gets n < 1.
const DefaultMaxGoroutine = 100

var (
	ErrManagerClosed = errors.New("goroutine: manager closed")
	ErrLimitReached  = errors.New("goroutine: limit reached")
)

// Manager tracks long-running tasks such as message consumers.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

func NewManager(n int) *Manager {
	if n < 1 {
		n = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, n)}
}

// Go starts fn unless the manager is closed or full. A panic in fn is
// recovered, logged and recorded as an error.
func (m *Manager) Go(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, task dropped")
		return ErrManagerClosed
	}

	select {
	case m.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(m.sema))
		return ErrLimitReached
	}

	m.wg.Go(func() {
		defer func() { <-m.sema }()

		if err := m.run(ctx, fn); err != nil {
			m.record(err)
		}
	})

	return nil
}

func (m *Manager) run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic recovered in goroutine", "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic recovered in goroutine", "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("goroutine: panic: %v", rvr)
	}()

	if ctx.Err() != nil {
		return nil
	}
	return fn(ctx)
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Wait closes the manager to new work, waits for running tasks and joins
// their errors.
func (m *Manager) Wait() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
