// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/internal/production"
	"github.com/comalice/asynclanes/timeline"
)

// GenFanOutLog creates a log where one UI method starts n I/O operations,
// awaits all of them and resumes once on a joined continuation.
func GenFanOutLog(n int) []primitives.Event {
	if n < 1 {
		n = 1
	}
	log := []primitives.Event{primitives.Call{Lane: primitives.LaneUI, Method: "Main"}}
	joins := make([]string, n)
	for i := 0; i < n; i++ {
		op := fmt.Sprintf("t%d", i)
		joins[i] = op
		log = append(log,
			primitives.Await{Lane: primitives.LaneUI, Method: "Main", Operation: op, Awaitable: "io"},
			primitives.IOStart{Operation: op, Op: "Read"},
		)
	}
	log = append(log, primitives.Yield{Lane: primitives.LaneUI, Method: "Main"})
	for _, op := range joins {
		log = append(log, primitives.IOComplete{Operation: op})
	}
	return append(log,
		primitives.ScheduleContinuation{Operation: "all", Joins: joins},
		primitives.Resume{Lane: primitives.LaneAuto, Method: "Main", Operation: "all"},
		primitives.Return{Lane: primitives.LaneAuto, Method: "Main", Operation: "all"},
	)
}

// GenDeepLog creates a log of depth nested calls, each awaiting a thread-pool
// operation, unwound innermost first.
func GenDeepLog(depth int) []primitives.Event {
	if depth < 1 {
		depth = 1
	}
	var log []primitives.Event
	for i := 0; i < depth; i++ {
		log = append(log, primitives.Call{Lane: primitives.LaneUI, Method: fmt.Sprintf("M%d", i)})
	}
	for i := depth - 1; i >= 0; i-- {
		m, op := fmt.Sprintf("M%d", i), fmt.Sprintf("w%d", i)
		log = append(log,
			primitives.QueueWork{Operation: op, Work: "Compute()"},
			primitives.Await{Lane: primitives.LaneUI, Method: m, Operation: op, Awaitable: "taskrun"},
			primitives.WorkStart{Operation: op, Worker: "W1", Work: "Compute()"},
			primitives.WorkComplete{Operation: op, Worker: "W1"},
			primitives.ScheduleContinuation{Operation: op},
			primitives.Resume{Lane: primitives.LaneAuto, Method: m, Operation: op},
			primitives.Return{Lane: primitives.LaneAuto, Method: m, Operation: op},
		)
	}
	return log
}

// Replay applies log from the empty snapshot and returns the result.
func Replay(e *core.Engine, mode primitives.Mode, log []primitives.Event) core.Snapshot {
	s := core.NewSnapshot(mode)
	for _, evt := range log {
		s = e.Apply(s, evt)
	}
	return s
}

// CollectAll returns every frame of a fresh session over log.
func CollectAll(log []primitives.Event) []timeline.Frame {
	s := timeline.NewSession("bench", log, primitives.ModeUI)
	return production.CollectFrames(s, len(log)-1)
}
