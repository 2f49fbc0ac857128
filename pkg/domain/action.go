package domain

// Value is the result threaded from one action to the next.
// A nil Value means "no result": the engine invokes the next action with
// nil and leaves the in-flight chain idle.
type Value = any

// Action is a single unit of work in a pipeline.
//
// The engine always passes exactly one optional value: the settled result
// of the previous action, or nil when there is none. An Action may ignore
// the input, return a plain value, return nil (no result), or return an
// asynchronous result (a *promise.Promise) which the engine adopts as its
// in-flight chain without blocking.
type Action func(v Value) (Value, error)

// Predicate gates a conditional compositor. The gate passes iff the
// returned Value is neither nil nor false. Note the asymmetry: values
// such as 0 and "" DO pass. Only nil and the boolean false close the
// gate; this is not a general truthiness check, and callers rely on
// that.
type Predicate func(v Value) Value

// Pass reports whether a predicate result opens the gate.
func Pass(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok && !b {
		return false
	}
	return true
}
