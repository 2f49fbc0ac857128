package conveyor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conveyor/internal/runtime"
	"github.com/aretw0/conveyor/pkg/domain"
	"github.com/aretw0/conveyor/pkg/promise"
)

// Action is re-exported from pkg/domain for caller convenience.
type Action = domain.Action

// Value is re-exported from pkg/domain for caller convenience.
type Value = domain.Value

// Predicate is re-exported from pkg/domain for caller convenience.
type Predicate = domain.Predicate

// Conveyor is the high-level entry point for the library. It wraps the
// internal runtime engine and provides a fluent enqueue API.
type Conveyor struct {
	engine *runtime.Engine
	cfg    runtime.Config
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	errMu sync.Mutex
	err   error
}

// Option defines a functional option for configuring a Conveyor.
type Option func(*Conveyor)

// WithActionInterval sets the period of the execution tick.
// Default: 2ms.
func WithActionInterval(d time.Duration) Option {
	return func(c *Conveyor) {
		c.cfg.ActionInterval = d
	}
}

// WithBufferInterval sets the period of the buffer-drain tick.
// Default: 1ms.
func WithBufferInterval(d time.Duration) Option {
	return func(c *Conveyor) {
		c.cfg.BufferInterval = d
	}
}

// WithQueueThreshold sets the active queue's soft capacity; enqueues past
// it spill into the overflow buffer. Default: 6.
func WithQueueThreshold(n int) Option {
	return func(c *Conveyor) {
		c.cfg.QueueThreshold = n
	}
}

// WithErrorHandler registers a handler for execution failures. The
// handler receives the failure (a *domain.ExecutionError wrapping the
// cause); a handled failure does not propagate further.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Conveyor) {
		c.cfg.ErrorHandler = fn
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conveyor) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Conveyor) {
		c.hooks = hooks
	}
}

// New creates an empty conveyor and starts its scheduler. Callers must
// Close it when done with it.
func New(opts ...Option) *Conveyor {
	c := &Conveyor{}
	for _, opt := range opts {
		opt(c)
	}

	// Silent unless the caller configures a logger.
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.engine = runtime.NewEngine(c.cfg, c.hooks, c.logger)
	return c
}

// Do appends the given actions in order, returning the conveyor for
// chaining. A nil action is rejected as a whole batch, before any
// queueing; the failure is retained and reported by Err.
func (c *Conveyor) Do(actions ...Action) *Conveyor {
	return c.DoAll(actions)
}

// DoAll appends an explicit list of actions; otherwise identical to Do.
func (c *Conveyor) DoAll(actions []Action) *Conveyor {
	if err := c.engine.Enqueue(actions...); err != nil {
		c.setErr(err)
	}
	return c
}

// Err returns the first enqueue failure recorded by Do or DoAll, or nil.
func (c *Conveyor) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conveyor) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// IsComplete reports whether the active queue and overflow buffer are
// both empty. It does not account for an in-flight asynchronous action;
// see Await for settlement-aware completion.
func (c *Conveyor) IsComplete() bool {
	return c.engine.IsComplete()
}

// Depths returns the current active queue and overflow buffer lengths.
func (c *Conveyor) Depths() (queue, buffer int) {
	return c.engine.Depths()
}

// AsPromise exposes the conveyor's completion as a promise: the in-flight
// chain when one exists, otherwise a promise that resolves once the
// conveyor is observed complete.
func (c *Conveyor) AsPromise() *promise.Promise {
	return c.engine.AsPromise()
}

// Then attaches a continuation to the conveyor's completion, making the
// conveyor itself awaitable-compatible.
func (c *Conveyor) Then(fn func(v Value) (Value, error)) *promise.Promise {
	return c.AsPromise().Then(fn)
}

// Await blocks until all currently-known work settles, or ctx is done,
// and returns the final threaded value.
func (c *Conveyor) Await(ctx context.Context) (Value, error) {
	return c.AsPromise().Await(ctx)
}

// Close stops the scheduler. Queued actions that have not started will
// not run; already-attached continuations still settle.
func (c *Conveyor) Close() {
	c.engine.Close()
}

// IsConveyor reports whether v is a *Conveyor instance.
func IsConveyor(v any) bool {
	_, ok := v.(*Conveyor)
	return ok
}
