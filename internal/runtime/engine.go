// Package runtime implements the Conveyor scheduling core: the active
// queue / overflow buffer pair, the two-phase polling loop, and the
// result-threading protocol that links consecutive actions through a
// single in-flight promise chain.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conveyor/pkg/domain"
	"github.com/aretw0/conveyor/pkg/promise"
)

// Default scheduling parameters. The drain tick runs at twice the rate
// of the execution tick; the threshold is the soft capacity of the
// active queue beyond which enqueues spill into the overflow buffer.
const (
	DefaultActionInterval = 2 * time.Millisecond
	DefaultBufferInterval = 1 * time.Millisecond
	DefaultQueueThreshold = 6
)

// Config carries the scheduling parameters for one engine instance.
type Config struct {
	ActionInterval time.Duration
	BufferInterval time.Duration
	QueueThreshold int

	// ErrorHandler receives every execution failure (wrapped in
	// *domain.ExecutionError). A handled failure does not propagate:
	// the chain continues with no result. When nil, failures are
	// logged at error level instead.
	ErrorHandler func(error)
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	if c.ActionInterval <= 0 {
		c.ActionInterval = DefaultActionInterval
	}
	if c.BufferInterval <= 0 {
		c.BufferInterval = DefaultBufferInterval
	}
	if c.QueueThreshold <= 0 {
		c.QueueThreshold = DefaultQueueThreshold
	}
	return c
}

// Engine owns the action containers and the in-flight chain for one
// conveyor instance.
//
// All execution happens on a single scheduler goroutine driven by two
// tickers (buffer drain, action execution). Enqueue is safe from any
// goroutine; the mutex guards the containers and the chain slot, never
// action execution itself.
type Engine struct {
	mu     sync.Mutex
	active []domain.Action
	buffer []domain.Action
	chain  *promise.Promise

	cfg    Config
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	// running marks the window between dequeueing an action and
	// recording its result, so IsComplete cannot observe an empty queue
	// while an action is mid-invocation.
	running bool

	stop     chan struct{}
	stopOnce sync.Once

	// complete tracks the last observed container state so OnComplete
	// fires only on the non-empty -> empty transition.
	complete bool
}

// NewEngine creates an engine and starts its scheduler goroutine.
// The caller must Close it to release the tickers.
func NewEngine(cfg Config, hooks domain.LifecycleHooks, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		cfg:      cfg.normalize(),
		hooks:    hooks,
		logger:   logger,
		stop:     make(chan struct{}),
		complete: true,
	}
	go e.run()
	return e
}

// Enqueue appends each action in order. An action lands in the active
// queue unless the queue is already past its soft threshold, in which
// case it spills into the overflow buffer. Nil actions are rejected
// eagerly, before any queueing. Execution never starts here; it happens
// on the next scheduler tick.
func (e *Engine) Enqueue(actions ...domain.Action) error {
	if err := domain.ValidateActions(actions); err != nil {
		return err
	}

	e.mu.Lock()
	for _, a := range actions {
		if len(e.active) > e.cfg.QueueThreshold {
			e.buffer = append(e.buffer, a)
		} else {
			e.active = append(e.active, a)
		}
	}
	if len(actions) > 0 {
		e.complete = false
	}
	qd, bd := len(e.active), len(e.buffer)
	e.mu.Unlock()

	e.logger.Debug("actions enqueued", "count", len(actions), "queue", qd, "buffer", bd)
	if h := e.hooks.OnEnqueue; h != nil {
		h(context.Background(), &domain.QueueEvent{
			EventBase:   eventBase(domain.EventEnqueue),
			QueueDepth:  qd,
			BufferDepth: bd,
			Accepted:    len(actions),
		})
	}
	return nil
}

// IsComplete reports whether both the active queue and the overflow
// buffer are empty.
//
// Deliberately, this does NOT account for the in-flight chain: an
// asynchronous action may still be settling while IsComplete reports
// true. Use AsPromise or Await for settlement-aware completion.
func (e *Engine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.running && len(e.active) == 0 && len(e.buffer) == 0
}

// Depths returns the current active queue and overflow buffer lengths.
func (e *Engine) Depths() (queue, buffer int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active), len(e.buffer)
}

// AsPromise exposes the engine's completion as a promise. With a chain
// in-flight it delegates to that chain; otherwise it polls for the
// complete state and resolves once observed (awaiting any chain that
// appeared in the meantime).
func (e *Engine) AsPromise() *promise.Promise {
	e.mu.Lock()
	ch := e.chain
	e.mu.Unlock()
	if ch != nil {
		return ch
	}

	return promise.New(func(resolve func(any), reject func(error)) {
		go func() {
			t := time.NewTicker(e.cfg.ActionInterval)
			defer t.Stop()
			for {
				select {
				case <-e.stop:
					resolve(nil)
					return
				case <-t.C:
					if !e.IsComplete() {
						continue
					}
					e.mu.Lock()
					ch := e.chain
					e.mu.Unlock()
					if ch == nil {
						resolve(nil)
						return
					}
					ch.OnSettled(func(v any, err error) {
						if err != nil {
							reject(err)
							return
						}
						resolve(v)
					})
					return
				}
			}
		}()
	})
}

// Close stops the scheduler goroutine. Already-attached continuations
// still settle; queued actions that have not been dequeued will not run.
func (e *Engine) Close() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// run is the scheduler loop: a single goroutine serving two timed
// events. When both tickers are due, the drain phase is served before
// the execute phase.
func (e *Engine) run() {
	drain := time.NewTicker(e.cfg.BufferInterval)
	exec := time.NewTicker(e.cfg.ActionInterval)
	defer drain.Stop()
	defer exec.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-drain.C:
			e.drainStep()
		case <-exec.C:
			// Serve a pending drain first to keep the two-phase
			// (drain, then execute) order within a logical tick.
			select {
			case <-drain.C:
				e.drainStep()
			default:
			}
			e.executeStep()
		}
	}
}

// drainStep moves exactly one action from the overflow buffer into the
// active queue, and only when the active queue is empty. This smooths
// bursty enqueues into the queue one action per tick.
func (e *Engine) drainStep() {
	e.mu.Lock()
	if len(e.active) != 0 || len(e.buffer) == 0 {
		e.mu.Unlock()
		return
	}
	a := e.buffer[0]
	e.buffer[0] = nil // release the slot for GC
	if len(e.buffer) == 1 {
		e.buffer = e.buffer[:0]
	} else {
		e.buffer = e.buffer[1:]
	}
	e.active = append(e.active, a)
	qd, bd := len(e.active), len(e.buffer)
	e.mu.Unlock()

	e.logger.Debug("buffer drained", "queue", qd, "buffer", bd)
	if h := e.hooks.OnBufferDrain; h != nil {
		h(context.Background(), &domain.QueueEvent{
			EventBase:   eventBase(domain.EventBufferDrain),
			QueueDepth:  qd,
			BufferDepth: bd,
		})
	}
}

// executeStep dequeues and executes actions until the active queue is
// empty. Ordering within and across ticks is strictly FIFO.
func (e *Engine) executeStep() {
	for {
		e.mu.Lock()
		if len(e.active) == 0 {
			e.mu.Unlock()
			break
		}
		a := e.active[0]
		e.active[0] = nil
		if len(e.active) == 1 {
			e.active = e.active[:0]
		} else {
			e.active = e.active[1:]
		}
		e.running = true
		e.mu.Unlock()

		e.executeOne(a)

		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}
	e.maybeComplete()
}

// executeOne runs a single dequeued action against the in-flight chain.
//
// With no chain in-flight the action is invoked immediately with a nil
// value: a promise result installs itself as the chain, a plain value
// installs a resolved chain, a nil result leaves the engine idle. With a
// chain in-flight, a continuation is attached that invokes the action
// with the chain's settled value; attachment is non-blocking and the
// continuation's result becomes the new chain.
//
// Failures are caught once, at this link's boundary, routed to the error
// handler, and the chain continues with no result.
func (e *Engine) executeOne(a domain.Action) {
	e.mu.Lock()
	ch := e.chain
	e.mu.Unlock()

	started := time.Now()

	if ch == nil {
		e.fireStart(started, false)
		v, err := invoke(a, nil)
		if err != nil {
			e.routeError(started, err)
			return
		}
		switch out := v.(type) {
		case *promise.Promise:
			e.setChain(e.observe(out, started))
		case nil:
			e.fireSettle(started, false)
		default:
			e.fireSettle(started, false)
			e.setChain(promise.Resolved(out))
		}
		return
	}

	e.fireStart(started, true)
	next := ch.Then(func(v any) (any, error) {
		return a(v)
	})
	e.setChain(e.observe(next, started))
}

// observe attaches the settle/error hooks and the handled-failure
// boundary to a chain link. The returned promise never rejects.
func (e *Engine) observe(p *promise.Promise, started time.Time) *promise.Promise {
	p.OnSettled(func(v any, err error) {
		if err == nil {
			e.fireSettle(started, true)
		}
	})
	return p.Catch(func(err error) (any, error) {
		e.routeError(started, err)
		return nil, nil
	})
}

func (e *Engine) setChain(p *promise.Promise) {
	e.mu.Lock()
	e.chain = p
	e.mu.Unlock()
}

// routeError dispatches a failure to the configured handler, or logs it
// when none is configured. The failure is considered handled either way;
// a failed action is never re-attempted.
func (e *Engine) routeError(started time.Time, err error) {
	execErr := &domain.ExecutionError{Err: err}
	if e.cfg.ErrorHandler != nil {
		e.cfg.ErrorHandler(execErr)
	} else {
		e.logger.Error("action failed", "err", err)
	}
	if h := e.hooks.OnActionError; h != nil {
		h(context.Background(), &domain.ActionEvent{
			EventBase: eventBase(domain.EventActionError),
			Duration:  time.Since(started),
			Err:       execErr,
		})
	}
}

func (e *Engine) fireStart(started time.Time, deferred bool) {
	if h := e.hooks.OnActionStart; h != nil {
		h(context.Background(), &domain.ActionEvent{
			EventBase: domain.EventBase{Timestamp: started, Type: domain.EventActionStart},
			Deferred:  deferred,
		})
	}
}

func (e *Engine) fireSettle(started time.Time, deferred bool) {
	if h := e.hooks.OnActionSettle; h != nil {
		h(context.Background(), &domain.ActionEvent{
			EventBase: eventBase(domain.EventActionSettle),
			Deferred:  deferred,
			Duration:  time.Since(started),
		})
	}
}

// maybeComplete fires OnComplete on the non-empty -> empty transition.
func (e *Engine) maybeComplete() {
	e.mu.Lock()
	empty := len(e.active) == 0 && len(e.buffer) == 0
	transition := empty && !e.complete
	e.complete = empty
	e.mu.Unlock()

	if !transition {
		return
	}
	e.logger.Debug("conveyor complete")
	if h := e.hooks.OnComplete; h != nil {
		h(context.Background(), &domain.QueueEvent{
			EventBase: eventBase(domain.EventComplete),
		})
	}
}

// invoke runs an action, converting a panic into an error so a
// misbehaving first action cannot kill the scheduler goroutine.
func invoke(a domain.Action, v domain.Value) (out domain.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return a(v)
}

func eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t}
}
