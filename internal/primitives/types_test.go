package primitives

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"ui":         ModeUI,
		"WPF":        ModeUI,
		"winforms":   ModeUI,
		"server":     ModeServer,
		"aspnetcore": ModeServer,
		" console ":  ModeServer,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseMode("mainframe"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("got %v, want ErrUnknownMode", err)
	}
}

func TestModeHelpers(t *testing.T) {
	if !ModeUI.CapturesContext() || ModeServer.CapturesContext() {
		t.Error("only ModeUI captures context")
	}
	if Mode("").Valid() {
		t.Error("zero Mode must be invalid")
	}
	if ModeUI.Toggle() != ModeServer || ModeServer.Toggle() != ModeUI {
		t.Error("Toggle should swap modes")
	}
}

func TestParseLane(t *testing.T) {
	cases := map[string]LaneID{
		"ui":         LaneUI,
		"tp":         LaneThreadPool,
		"threadpool": LaneThreadPool,
		"io":         LaneIO,
		"caller":     LaneCaller,
		"auto":       LaneAuto,
	}
	for in, want := range cases {
		got, err := ParseLane(in)
		if err != nil || got != want {
			t.Errorf("ParseLane(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLane("gpu"); !errors.Is(err, ErrUnknownLane) {
		t.Errorf("got %v, want ErrUnknownLane", err)
	}
	if LaneAuto.Valid() {
		t.Error("LaneAuto is not a concrete lane")
	}
	if len(Lanes()) != 4 {
		t.Errorf("got %d lanes want 4", len(Lanes()))
	}
}

func TestLifecycleAdvance(t *testing.T) {
	cases := []struct {
		from, to, want Lifecycle
	}{
		{Created, Awaited, Awaited},
		{Awaited, RunningIO, RunningIO},
		{QueuedTP, Awaited, Awaited},
		{RunningIO, Awaited, RunningIO},
		{Completed, RunningIO, Completed},
		{Completed, Completed, Completed},
		{Awaited, Lifecycle("bogus"), Awaited},
	}
	for _, tc := range cases {
		if got := tc.from.Advance(tc.to); got != tc.want {
			t.Errorf("%s.Advance(%s) = %s, want %s", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCapture(t *testing.T) {
	yes, no := true, false
	if CaptureOf(nil) != CaptureUnset || CaptureOf(&yes) != CaptureTrue || CaptureOf(&no) != CaptureFalse {
		t.Error("CaptureOf mismatch")
	}
	if !CaptureUnset.Resolve(true) || CaptureUnset.Resolve(false) {
		t.Error("unset should resolve to the default")
	}
	if CaptureFalse.Resolve(true) || !CaptureTrue.Resolve(false) {
		t.Error("set flags ignore the default")
	}

	var c Capture
	if err := c.UnmarshalText([]byte("false")); err != nil || c != CaptureFalse {
		t.Errorf("UnmarshalText(false) = %v, %v", c, err)
	}
	if err := c.UnmarshalText([]byte("maybe")); err == nil {
		t.Error("expected error for invalid flag")
	}
}
