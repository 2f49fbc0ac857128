package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEnqueue      EventType = "enqueue"
	EventActionStart  EventType = "action_start"
	EventActionSettle EventType = "action_settle"
	EventActionError  EventType = "action_error"
	EventBufferDrain  EventType = "buffer_drain"
	EventComplete     EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// QueueEvent reports a change to the engine's containers: an enqueue, a
// drain of one action from the overflow buffer, or the transition to the
// complete state.
type QueueEvent struct {
	EventBase
	QueueDepth  int `json:"queue_depth"`
	BufferDepth int `json:"buffer_depth"`
	Accepted    int `json:"accepted,omitempty"` // actions accepted by this enqueue
}

// ActionEvent reports the start or settlement of a single action.
type ActionEvent struct {
	EventBase
	Deferred bool          `json:"deferred,omitempty"` // action returned an asynchronous result
	Duration time.Duration `json:"duration,omitempty"` // start-to-settle, settle events only
	Err      error         `json:"-"`                  // failure cause, error events only
}

// LifecycleHooks defines callbacks for engine observability.
// Nil hooks are skipped. Hooks run inline on the engine's scheduler
// goroutine (or the settling goroutine for settle/error events) and must
// not block.
type LifecycleHooks struct {
	OnEnqueue      func(context.Context, *QueueEvent)
	OnActionStart  func(context.Context, *ActionEvent)
	OnActionSettle func(context.Context, *ActionEvent)
	OnActionError  func(context.Context, *ActionEvent)
	OnBufferDrain  func(context.Context, *QueueEvent)
	OnComplete     func(context.Context, *QueueEvent)
}
