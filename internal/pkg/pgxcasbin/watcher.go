package pgxcasbin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
)

const DefaultChannel = "quill_casbin"

// Op names the policy change carried by a notification.
type Op string

const (
	OpReload         Op = "reload"
	OpAdd            Op = "add"
	OpRemove         Op = "remove"
	OpRemoveFiltered Op = "remove_filtered"
)

// Event is the NOTIFY payload.
type Event struct {
	Op          Op         `json:"op"`
	Origin      string     `json:"origin"`
	Sec         string     `json:"sec,omitempty"`
	PType       string     `json:"ptype,omitempty"`
	Rules       [][]string `json:"rules,omitempty"`
	FieldIndex  int        `json:"field_index,omitempty"`
	FieldValues []string   `json:"field_values,omitempty"`
}

var _ persist.WatcherEx = (*Watcher)(nil)

// Watcher broadcasts local policy changes with pg_notify and replays
// changes made by other instances. Its own events are ignored.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	origin  string

	mu       sync.RWMutex
	callback func(string)

	listening *atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher starts listening on channel (DefaultChannel when empty). The
// listener reconnects with capped Fibonacci backoff until Close.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, channel string) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgxcasbin: ping: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}

	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watcher{
		pool:      pool,
		channel:   channel,
		origin:    uuid.NewString(),
		listening: atomic.NewBool(false),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go w.run(lctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.listen(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		slog.WarnContext(ctx, "pgxcasbin: listener lost, retrying", "channel", w.channel, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("pgxcasbin: listener stopped", "channel", w.channel, "error", err)
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		return err
	}
	w.listening.Store(true)
	defer w.listening.Store(false)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		w.dispatch(n.Payload)
	}
}

func (w *Watcher) dispatch(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		slog.Warn("pgxcasbin: bad notification", "payload", payload, "error", err)
		return
	}
	if ev.Origin == w.origin {
		return
	}

	w.mu.RLock()
	cb := w.callback
	w.mu.RUnlock()
	if cb != nil {
		cb(payload)
	}
}

// Listening reports whether a LISTEN session is currently active.
func (w *Watcher) Listening() bool { return w.listening.Load() }

func (w *Watcher) SetUpdateCallback(cb func(string)) error {
	w.mu.Lock()
	w.callback = cb
	w.mu.Unlock()
	return nil
}

func (w *Watcher) Update() error {
	return w.notify(Event{Op: OpReload})
}

func (w *Watcher) UpdateForAddPolicy(sec, ptype string, params ...string) error {
	return w.notify(Event{Op: OpAdd, Sec: sec, PType: ptype, Rules: [][]string{params}})
}

func (w *Watcher) UpdateForAddPolicies(sec, ptype string, rules ...[]string) error {
	return w.notify(Event{Op: OpAdd, Sec: sec, PType: ptype, Rules: rules})
}

func (w *Watcher) UpdateForRemovePolicy(sec, ptype string, params ...string) error {
	return w.notify(Event{Op: OpRemove, Sec: sec, PType: ptype, Rules: [][]string{params}})
}

func (w *Watcher) UpdateForRemovePolicies(sec, ptype string, rules ...[]string) error {
	return w.notify(Event{Op: OpRemove, Sec: sec, PType: ptype, Rules: rules})
}

func (w *Watcher) UpdateForRemoveFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) error {
	return w.notify(Event{Op: OpRemoveFiltered, Sec: sec, PType: ptype, FieldIndex: fieldIndex, FieldValues: fieldValues})
}

func (w *Watcher) UpdateForSavePolicy(model.Model) error {
	return w.notify(Event{Op: OpReload})
}

func (w *Watcher) notify(ev Event) error {
	ev.Origin = w.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := w.pool.Exec(ctx, "SELECT pg_notify($1, $2)", w.channel, string(payload)); err != nil {
		return fmt.Errorf("pgxcasbin: notify: %w", err)
	}
	return nil
}

// Close stops the listener and waits for it to exit.
func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

// Apply returns a callback that replays events on e without re-notifying.
func Apply(e casbin.IEnforcer) func(string) {
	return func(payload string) {
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			slog.Warn("pgxcasbin: bad event", "payload", payload, "error", err)
			return
		}
		if err := applyEvent(e, ev); err != nil {
			slog.Error("pgxcasbin: apply event", "op", ev.Op, "error", err)
		}
	}
}

func applyEvent(e casbin.IEnforcer, ev Event) error {
	switch ev.Op {
	case OpReload:
		return e.LoadPolicy()
	case OpAdd:
		_, err := e.SelfAddPolicies(ev.Sec, ev.PType, ev.Rules)
		return err
	case OpRemove:
		_, err := e.SelfRemovePolicies(ev.Sec, ev.PType, ev.Rules)
		return err
	case OpRemoveFiltered:
		_, err := e.SelfRemoveFilteredPolicy(ev.Sec, ev.PType, ev.FieldIndex, ev.FieldValues...)
		return err
	default:
		return fmt.Errorf("pgxcasbin: unknown op %q", ev.Op)
	}
}
