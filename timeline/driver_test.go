package timeline_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/testutil"
	"github.com/comalice/asynclanes/timeline"
)

func TestReset(t *testing.T) {
	d := timeline.NewDriver()
	s := d.Reset(primitives.ModeServer)
	if !s.Equal(core.NewSnapshot(primitives.ModeServer)) {
		t.Error("Reset should return the empty snapshot")
	}
}

func TestStepForward(t *testing.T) {
	d := timeline.NewDriver()
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := d.Reset(primitives.ModeUI)

	idx := timeline.Start
	for i := range log {
		idx, s = d.StepForward(log, idx, s)
		if idx != i {
			t.Fatalf("step %d: index = %d", i, idx)
		}
	}
	if got := s.Stack(primitives.LaneUI); len(got) != 0 {
		t.Errorf("final ui stack = %v, want empty", got)
	}

	// End of log is a no-op.
	endIdx, endSnap := d.StepForward(log, idx, s)
	if endIdx != idx || !endSnap.Equal(s) {
		t.Errorf("StepForward at end = (%d, changed=%v)", endIdx, !endSnap.Equal(s))
	}
}

func TestStepForwardEmptyLog(t *testing.T) {
	d := timeline.NewDriver()
	s := d.Reset(primitives.ModeUI)
	idx, got := d.StepForward(nil, timeline.Start, s)
	if idx != timeline.Start || !got.Equal(s) {
		t.Error("StepForward on an empty log should be a no-op")
	}
}

func TestJumpToClamps(t *testing.T) {
	d := timeline.NewDriver()
	log := testutil.TaskRunLog()

	tests := []struct {
		target int
		want   int
	}{
		{-5, timeline.Start},
		{-1, timeline.Start},
		{0, 0},
		{3, 3},
		{len(log) - 1, len(log) - 1},
		{len(log) + 10, len(log) - 1},
	}
	for _, tt := range tests {
		idx, s := d.JumpTo(log, tt.target, primitives.ModeUI)
		if idx != tt.want {
			t.Errorf("JumpTo(%d) index = %d, want %d", tt.target, idx, tt.want)
		}
		if idx == timeline.Start && !s.Equal(d.Reset(primitives.ModeUI)) {
			t.Errorf("JumpTo(%d) should return the initial snapshot", tt.target)
		}
	}

	if idx, _ := d.JumpTo(nil, 3, primitives.ModeUI); idx != timeline.Start {
		t.Errorf("JumpTo on empty log = %d, want Start", idx)
	}
}

func TestJumpToMatchesStepping(t *testing.T) {
	d := timeline.NewDriver()
	log := testutil.WhenAllLog()

	idx, stepped := timeline.Start, d.Reset(primitives.ModeUI)
	for i := range log {
		idx, stepped = d.StepForward(log, idx, stepped)
		_, jumped := d.JumpTo(log, i, primitives.ModeUI)
		if !jumped.Equal(stepped) {
			t.Fatalf("JumpTo(%d) differs from stepping", i)
		}
	}
}

func TestWithEngine(t *testing.T) {
	always := core.RuleFunc(func(primitives.Mode, bool) primitives.LaneID { return primitives.LaneIO })
	d := timeline.NewDriver(timeline.WithEngine(core.NewEngine(core.WithRules(always))))
	_, s := d.JumpTo(testutil.IOAwaitLog(primitives.CaptureTrue), 5, primitives.ModeUI)
	if o, _ := s.Operation("t1"); o.ContinuationTarget != primitives.LaneIO {
		t.Errorf("ContinuationTarget = %s, want io", o.ContinuationTarget)
	}
	if timeline.NewDriver(timeline.WithEngine(nil)).Engine() == nil {
		t.Error("WithEngine(nil) must keep a default engine")
	}
}

func TestDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 40
	properties := gopter.NewProperties(parameters)

	// Property 1: JumpTo(L, i) equals i+1 steps from the initial snapshot.
	properties.Property("jumpTo equals stepping", prop.ForAll(
		func(mode primitives.Mode, specs []testutil.EventSpec, pick int) bool {
			log := testutil.Events(specs)
			if len(log) == 0 {
				return true
			}
			target := pick % len(log)
			d := timeline.NewDriver()

			idx, s := timeline.Start, d.Reset(mode)
			for idx < target {
				idx, s = d.StepForward(log, idx, s)
			}
			jIdx, jumped := d.JumpTo(log, target, mode)
			if jIdx != idx || !jumped.Equal(s) {
				return false
			}
			a, errA := jumped.Fingerprint()
			b, errB := s.Fingerprint()
			return errA == nil && errB == nil && a == b
		},
		testutil.GenMode(),
		testutil.GenLog(),
		gen.IntRange(0, 1000),
	))

	// Property 2: stepping at the final index never changes the snapshot.
	properties.Property("stepForward at end is a no-op", prop.ForAll(
		func(mode primitives.Mode, specs []testutil.EventSpec) bool {
			log := testutil.Events(specs)
			d := timeline.NewDriver()
			idx, s := d.JumpTo(log, len(log), mode)
			nIdx, next := d.StepForward(log, idx, s)
			return nIdx == idx && next.Equal(s)
		},
		testutil.GenMode(),
		testutil.GenLog(),
	))

	properties.TestingRun(t)
}

func TestZeroDriver(t *testing.T) {
	var zero timeline.Driver
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	want := timeline.NewDriver()

	for target := timeline.Start; target < len(log); target++ {
		gotIdx, got := zero.JumpTo(log, target, primitives.ModeServer)
		wantIdx, wantSnap := want.JumpTo(log, target, primitives.ModeServer)
		if gotIdx != wantIdx || !got.Equal(wantSnap) {
			t.Errorf("JumpTo(%d) on zero Driver = %d, want %d", target, gotIdx, wantIdx)
		}
	}
	idx, s := zero.StepForward(log, timeline.Start, zero.Reset(primitives.ModeUI))
	if idx != 0 || len(s.Stack(primitives.LaneUI)) != 1 {
		t.Errorf("StepForward on zero Driver = %d, ui=%v", idx, s.Stack(primitives.LaneUI))
	}
}
