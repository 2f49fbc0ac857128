/*
Package conveyor is a small sequential task-runner: it accepts a stream of
actions (some synchronous, some asynchronous) and guarantees they execute
strictly one after another, threading the result of each action into the
next.

It implements a polling-driven engine: a bounded active queue plus an
unbounded overflow buffer, drained by two timed phases on a single
scheduler goroutine. Asynchronous results are represented by the explicit
promise type in pkg/promise, and consecutive actions are linked through a
single in-flight promise chain, so ordering is preserved without ever
blocking the scheduler.

# Key Properties

  - Strict FIFO: actions run in enqueue order, across the queue/buffer
    split, regardless of which actions are synchronous vs. asynchronous.
  - Result threading: each action receives the settled result of its
    predecessor (nil when there is none).
  - Single in-flight chain: at most one unresolved promise links the
    pipeline at any time; a new action attaches to it, it never overtakes.
  - Backpressure: bursty enqueues past the queue threshold land in the
    overflow buffer and are fed back one action per drain tick.

# Usage

	package main

	import (
		"context"
		"fmt"
		"os"
		"time"

		"github.com/aretw0/conveyor"
	)

	func main() {
		c := conveyor.New()
		defer c.Close()

		c.Do(
			conveyor.Always([]int{1}),
			conveyor.Sleep(10*time.Millisecond),
			func(v conveyor.Value) (conveyor.Value, error) {
				return append(v.([]int), 2), nil
			},
			conveyor.Say(os.Stdout, "done"),
		)

		out, err := c.Await(context.Background())
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println(out) // [1 2]
	}

Composite actions are built with Sequence, When, Unless and
Simultaneously; they are plain actions and can be enqueued like any
other. The engine treats a composite's promise exactly like a primitive
action's, so actions enqueued after a Sequence will not start until the
whole sub-sequence settles.
*/
package conveyor
