package testutil

import (
	"fmt"

	"github.com/comalice/asynclanes/internal/primitives"
)

func must[E primitives.Event](e E, err error) primitives.Event {
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return e
}

// IOAwaitLog is the "await stream.ReadAsync" walkthrough: call, await with the
// given capture flag, I/O start and completion, scheduling, resume and return.
func IOAwaitLog(capture primitives.Capture) []primitives.Event {
	return []primitives.Event{
		must(primitives.NewCall(primitives.LaneUI, "FooAsync")),
		must(primitives.NewAwait(primitives.LaneUI, "FooAsync", "t1", "io", capture)),
		must(primitives.NewIOStart("t1", "Read")),
		must(primitives.NewYield(primitives.LaneUI, "FooAsync")),
		must(primitives.NewIOComplete("t1")),
		must(primitives.NewScheduleContinuation("t1")),
		must(primitives.NewResume(primitives.LaneAuto, "FooAsync", "t1")),
		must(primitives.NewReturn(primitives.LaneAuto, "FooAsync", "t1")),
	}
}

// TaskRunLog offloads Bar() to a thread-pool worker and awaits it.
func TaskRunLog() []primitives.Event {
	return []primitives.Event{
		must(primitives.NewCall(primitives.LaneUI, "FooAsync")),
		must(primitives.NewQueueWork("t2", "Bar()")),
		must(primitives.NewAwait(primitives.LaneUI, "FooAsync", "t2", "taskrun", primitives.CaptureTrue)),
		must(primitives.NewYield(primitives.LaneUI, "FooAsync")),
		must(primitives.NewWorkStart("t2", "W1", "Bar()")),
		must(primitives.NewWorkComplete("t2", "W1")),
		must(primitives.NewScheduleContinuation("t2")),
		must(primitives.NewResume(primitives.LaneAuto, "FooAsync", "t2")),
		must(primitives.NewReturn(primitives.LaneAuto, "FooAsync", "t2")),
	}
}

// WhenAllLog fans out two I/O operations and joins them through the whenAll
// pseudo-operation.
func WhenAllLog() []primitives.Event {
	return []primitives.Event{
		must(primitives.NewCall(primitives.LaneUI, "FooAsync")),
		must(primitives.NewAwait(primitives.LaneUI, "FooAsync", "tA", "io", primitives.CaptureTrue)),
		must(primitives.NewIOStart("tA", "http.GetAsync(A)")),
		must(primitives.NewAwait(primitives.LaneUI, "FooAsync", "tB", "io", primitives.CaptureTrue)),
		must(primitives.NewIOStart("tB", "http.GetAsync(B)")),
		must(primitives.NewYield(primitives.LaneUI, "FooAsync")),
		must(primitives.NewIOComplete("tA")),
		must(primitives.NewIOComplete("tB")),
		must(primitives.NewScheduleContinuation("whenAll", "tA", "tB")),
		must(primitives.NewResume(primitives.LaneAuto, "FooAsync", "whenAll")),
		must(primitives.NewReturn(primitives.LaneAuto, "FooAsync", "whenAll")),
	}
}
