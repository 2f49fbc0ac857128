// Package promise implements the deferred-result primitive used by the
// Conveyor engine. A Promise settles exactly once to a (value, error)
// pair; continuations are attached with Then/Catch and never block the
// attaching goroutine.
//
// Flattening follows the thenable contract: resolving a Promise
// with another Promise, or returning one from a Then callback, adopts the
// inner promise's settlement instead of nesting.
package promise

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Promise is a single-settlement container for an asynchronous result.
// The zero value is not usable; use New, Resolved, Rejected or After.
type Promise struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
}

func pending() *Promise {
	return &Promise{done: make(chan struct{})}
}

// New runs the executor synchronously, handing it the resolve and reject
// functions for the returned promise. Calls after the first settlement
// are ignored.
func New(executor func(resolve func(any), reject func(error))) *Promise {
	p := pending()
	executor(p.resolve, p.reject)
	return p
}

// Resolved returns a promise already settled with v. If v is itself a
// promise, it is returned as-is rather than nested.
func Resolved(v any) *Promise {
	if inner, ok := v.(*Promise); ok && inner != nil {
		return inner
	}
	p := pending()
	p.settle(v, nil)
	return p
}

// Rejected returns a promise already failed with err.
func Rejected(err error) *Promise {
	p := pending()
	p.settle(nil, err)
	return p
}

// After returns a promise that resolves to v once d has elapsed.
func After(d time.Duration, v any) *Promise {
	p := pending()
	time.AfterFunc(d, func() { p.resolve(v) })
	return p
}

// resolve settles the promise with v, adopting v's own settlement when it
// is a promise (flattening).
func (p *Promise) resolve(v any) {
	if inner, ok := v.(*Promise); ok && inner != nil {
		inner.subscribe(p.settle)
		return
	}
	p.settle(v, nil)
}

func (p *Promise) reject(err error) {
	p.settle(nil, err)
}

// settle records the outcome at most once and flushes queued callbacks.
// Callbacks run on the settling goroutine, outside the lock.
func (p *Promise) settle(v any, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.value, p.err = v, err
	cbs := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(v, err)
	}
}

// subscribe registers fn to run on settlement. If the promise has already
// settled, fn runs immediately on the calling goroutine.
func (p *Promise) subscribe(fn func(any, error)) {
	p.mu.Lock()
	if p.settled {
		v, err := p.value, p.err
		p.mu.Unlock()
		fn(v, err)
		return
	}
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

// Then attaches a continuation that runs once the promise resolves.
// The attachment is non-blocking; the returned promise settles with the
// callback's result, adopting it when the callback returns a promise.
// Rejections bypass fn and propagate to the returned promise. A panic in
// fn is captured as a rejection.
func (p *Promise) Then(fn func(v any) (any, error)) *Promise {
	next := pending()
	p.subscribe(func(v any, err error) {
		if err != nil {
			next.settle(nil, err)
			return
		}
		out, ferr := call(fn, v)
		if ferr != nil {
			next.settle(nil, ferr)
			return
		}
		next.resolve(out)
	})
	return next
}

// Catch attaches a rejection handler. Resolved values pass through
// untouched; a handled rejection settles the returned promise with the
// handler's result.
func (p *Promise) Catch(fn func(err error) (any, error)) *Promise {
	next := pending()
	p.subscribe(func(v any, err error) {
		if err == nil {
			next.resolve(v)
			return
		}
		out, ferr := call(func(any) (any, error) { return fn(err) }, nil)
		if ferr != nil {
			next.settle(nil, ferr)
			return
		}
		next.resolve(out)
	})
	return next
}

// call invokes fn, converting a panic into an error.
func call(fn func(any) (any, error), v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return fn(v)
}

// OnSettled registers an observer that receives the outcome without
// deriving a new promise. If the promise has already settled, fn runs
// immediately on the calling goroutine.
func (p *Promise) OnSettled(fn func(v any, err error)) {
	p.subscribe(fn)
}

// Await blocks until the promise settles or ctx is done.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	}
}

// Settled reports whether the promise has settled.
func (p *Promise) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

// Done returns a channel closed on settlement, for use in select.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}
