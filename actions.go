package conveyor

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/conveyor/pkg/promise"
)

// Pure builders producing single actions. Each is independent and
// stateless; none of them touches the engine.

// AsAction adapts a plain function into an Action, binding its arguments
// now. The pipeline value is ignored; the function's result becomes the
// action's result.
func AsAction(fn func(args ...Value) (Value, error), bound ...Value) Action {
	return func(Value) (Value, error) {
		return fn(bound...)
	}
}

// Tap runs fn against the threaded value for its side effect and passes
// the value through unchanged.
func Tap(fn func(v Value)) Action {
	return func(v Value) (Value, error) {
		fn(v)
		return v, nil
	}
}

// Always returns an action producing the given constant, regardless of
// input.
func Always(v Value) Action {
	return func(Value) (Value, error) {
		return v, nil
	}
}

// Resolve returns an action producing the given value explicitly wrapped
// in a resolved promise, for callers that want chain-shaped output.
func Resolve(v Value) Action {
	return func(Value) (Value, error) {
		return promise.Resolved(v), nil
	}
}

// Ident returns the passthrough action.
func Ident() Action {
	return func(v Value) (Value, error) {
		return v, nil
	}
}

// DoNothing returns an action with no effect and no result.
func DoNothing() Action {
	return func(Value) (Value, error) {
		return nil, nil
	}
}

// Log returns an action that records msg and the threaded value on the
// given structured logger, passing the value through.
func Log(logger *slog.Logger, msg string) Action {
	return func(v Value) (Value, error) {
		logger.Info(msg, "value", v)
		return v, nil
	}
}

// Say returns an action that prints msg to w and passes the threaded
// value through.
func Say(w io.Writer, msg string) Action {
	return func(v Value) (Value, error) {
		fmt.Fprintln(w, msg)
		return v, nil
	}
}

// Sleep returns an action producing a promise that settles after d,
// propagating whatever value it received.
func Sleep(d time.Duration) Action {
	return func(v Value) (Value, error) {
		return promise.After(d, v), nil
	}
}

// Fail returns an action that always fails with err.
func Fail(err error) Action {
	return func(Value) (Value, error) {
		return nil, err
	}
}
