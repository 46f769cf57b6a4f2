// Package timeline drives replays of an event log through the core engine.
//
// The Driver is stateless: Reset builds the initial snapshot, StepForward
// applies the next event and JumpTo rebuilds from scratch up to a target index.
// Because the engine is pure and logs are immutable, JumpTo(L, i) always equals
// i+1 successive StepForward calls from Reset.
//
// # Sessions
//
// A Session is the externally owned replay state: scenario, log, mode, index and
// current snapshot. There are no package-level sessions; callers create as many
// as they need and each one is safe for concurrent use.
//
//	s := timeline.NewSession("io_await_readasync", log, primitives.ModeUI)
//	s.Step()
//	s.JumpTo(4)
//	frame := s.Frame()
//
// # Playback
//
// A Player paces Session.Step from a Clock. Pausing is cancelling the context
// passed to Run; resuming is calling Run again. The core holds no timers, so
// pacing never affects what a frame contains.
package timeline
