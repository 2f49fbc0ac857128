/*
Package domain contains the core domain models for the Conveyor engine.

It defines the fundamental entities of the pipeline: the Action (a unit of
work threading a value to its successor), the error kinds raised at compose
and execution time, and the lifecycle events the engine emits for
observability. This package is kept pure and free of external dependencies
like I/O or scheduling, following Hexagonal Architecture principles.

# Key Entities

  - Action: A zero-or-one-argument unit of work, optionally asynchronous.
  - Value: The result threaded between consecutive actions (nil = no result).
  - InvalidActionError / ExecutionError: The two failure kinds of the engine.
  - LifecycleHooks: Callbacks for engine observability.
*/
package domain
