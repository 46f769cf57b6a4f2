// Package testutil provides gopter generators and canned event logs shared by
// the replay tests. It depends only on primitives so any tier can use it.
package testutil

import (
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"

	"github.com/comalice/asynclanes/internal/primitives"
)

// Small pools keep generated logs dense with collisions: the same methods and
// operations are referenced repeatedly, which is where the interesting
// transitions happen.
var (
	methodPool = []interface{}{"FooAsync", "BarAsync", "Main", ""}
	opPool     = []interface{}{"t1", "t2", "tA", "whenAll", ""}
	workerPool = []interface{}{"W1", "W2", ""}
	lanePool   = []interface{}{
		primitives.LaneUI, primitives.LaneThreadPool, primitives.LaneIO,
		primitives.LaneCaller, primitives.LaneAuto, primitives.LaneID("gpu"),
	}
)

// EventSpec is a generated, not necessarily valid, event description.
// Kind indexes primitives.Kinds(); out-of-range values produce Unknown events.
type EventSpec struct {
	Kind    int
	Lane    primitives.LaneID
	Method  string
	Op      string
	Capture primitives.Capture
	Worker  string
}

// Event builds the event directly, bypassing constructor validation so the
// engine also sees malformed records.
func (s EventSpec) Event() primitives.Event {
	kinds := primitives.Kinds()
	if s.Kind < 0 || s.Kind >= len(kinds) {
		return primitives.Unknown{Type: "unknown_kind"}
	}
	switch kinds[s.Kind] {
	case primitives.KindCall:
		return primitives.Call{Lane: s.Lane, Method: s.Method}
	case primitives.KindReturn:
		return primitives.Return{Lane: s.Lane, Method: s.Method, Operation: s.Op}
	case primitives.KindAwait:
		return primitives.Await{Lane: s.Lane, Method: s.Method, Operation: s.Op, Awaitable: "io", Capture: s.Capture}
	case primitives.KindYield:
		return primitives.Yield{Lane: s.Lane, Method: s.Method}
	case primitives.KindIOStart:
		return primitives.IOStart{Operation: s.Op, Op: "read"}
	case primitives.KindIOComplete:
		return primitives.IOComplete{Operation: s.Op}
	case primitives.KindQueueWork:
		return primitives.QueueWork{Operation: s.Op, Work: "Bar()"}
	case primitives.KindWorkStart:
		return primitives.WorkStart{Operation: s.Op, Worker: s.Worker, Work: "Bar()"}
	case primitives.KindWorkComplete:
		return primitives.WorkComplete{Operation: s.Op, Worker: s.Worker}
	case primitives.KindScheduleContinuation:
		return primitives.ScheduleContinuation{Operation: s.Op}
	case primitives.KindResume:
		return primitives.Resume{Lane: s.Lane, Method: s.Method, Operation: s.Op}
	}
	return primitives.Unknown{Type: string(kinds[s.Kind])}
}

// GenEventSpec generates event descriptions across the whole vocabulary plus
// unknown type tags.
func GenEventSpec() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(primitives.Kinds())),
		gen.OneConstOf(lanePool...),
		gen.OneConstOf(methodPool...),
		gen.OneConstOf(opPool...),
		gen.OneConstOf(primitives.CaptureUnset, primitives.CaptureTrue, primitives.CaptureFalse),
		gen.OneConstOf(workerPool...),
	).Map(func(v []interface{}) EventSpec {
		return EventSpec{
			Kind:    v[0].(int),
			Lane:    v[1].(primitives.LaneID),
			Method:  v[2].(string),
			Op:      v[3].(string),
			Capture: v[4].(primitives.Capture),
			Worker:  v[5].(string),
		}
	})
}

// GenLog generates event logs of up to the configured gopter MaxSize.
func GenLog() gopter.Gen {
	return gen.SliceOf(GenEventSpec())
}

// GenMode generates both environment modes.
func GenMode() gopter.Gen {
	return gen.OneConstOf(primitives.ModeUI, primitives.ModeServer)
}

// Events converts generated specs into an event log.
func Events(specs []EventSpec) []primitives.Event {
	out := make([]primitives.Event, len(specs))
	for i, s := range specs {
		out[i] = s.Event()
	}
	return out
}
