package conveyor

import (
	"github.com/aretw0/conveyor/pkg/domain"
	"github.com/aretw0/conveyor/pkg/promise"
)

// Sequence folds an ordered list of actions into one composite action.
//
// The first sub-action receives the composite's own input. Threading then
// proceeds left to right: while results stay plain values, each next
// sub-action is invoked synchronously; the moment a sub-action yields a
// promise, the remaining sub-actions are chained as continuations on it.
// A wholly synchronous run returns the final value wrapped in a resolved
// promise, so the engine treats both cases identically.
//
// Nil sub-actions fail the whole composite with InvalidActionError,
// checked eagerly before any sub-action runs.
func Sequence(actions ...Action) Action {
	if err := domain.ValidateActions(actions); err != nil {
		return Fail(err)
	}

	return func(v Value) (Value, error) {
		acc := v
		for i, a := range actions {
			out, err := a(acc)
			if err != nil {
				return nil, err
			}
			if p, ok := out.(*promise.Promise); ok && p != nil {
				// Switch to asynchronous mode: chain the rest.
				return chainRest(p, actions[i+1:]), nil
			}
			acc = out
		}
		return promise.Resolved(acc), nil
	}
}

// DoSequentially is the direct-invocation spelling of Sequence.
func DoSequentially(actions []Action) Action {
	return Sequence(actions...)
}

func chainRest(p *promise.Promise, rest []Action) *promise.Promise {
	for _, a := range rest {
		a := a
		p = p.Then(func(v any) (any, error) {
			return a(v)
		})
	}
	return p
}

// When gates a sub-sequence on a predicate. The returned action evaluates
// pred against its input: when the result is neither nil nor false, the
// given actions run sequentially with that input and their result is
// returned; otherwise the input passes through unchanged, wrapped in a
// resolved promise. Note that 0 and "" open the gate.
func When(pred Predicate, actions ...Action) Action {
	seq := Sequence(actions...)
	return func(v Value) (Value, error) {
		if pred == nil || !domain.Pass(pred(v)) {
			return promise.Resolved(v), nil
		}
		return seq(v)
	}
}

// Unless is When with the predicate test inverted.
func Unless(pred Predicate, actions ...Action) Action {
	seq := Sequence(actions...)
	return func(v Value) (Value, error) {
		if pred != nil && domain.Pass(pred(v)) {
			return promise.Resolved(v), nil
		}
		return seq(v)
	}
}

// Simultaneously fires every action with the same input, each on its own
// goroutine, without awaiting any settlement. Results and failures of the
// sub-actions are deliberately not aggregated; callers needing results
// must have the sub-actions perform their own side effects. The composite
// itself returns no result.
//
// Nil sub-actions are rejected eagerly, before any sub-action fires.
func Simultaneously(actions ...Action) Action {
	if err := domain.ValidateActions(actions); err != nil {
		return Fail(err)
	}

	return func(v Value) (Value, error) {
		for _, a := range actions {
			a := a
			go func() {
				_, _ = a(v)
			}()
		}
		return nil, nil
	}
}
