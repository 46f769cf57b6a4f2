// Package primitives provides the foundational value types for the replay engine.
//
// Everything here is an immutable value: lanes, environment modes, lifecycle
// states and the Event tagged union read from a scenario log. Events are
// validated when they are constructed; the engine still tolerates zero-value or
// unrecognized events and treats them as no-ops.
//
// Core invariants:
// - Events are never mutated after construction
// - LaneAuto is only meaningful on Return and Resume
// - Lifecycle progress is ordered by Rank
package primitives
