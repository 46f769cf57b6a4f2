package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for unrecognized environment names.
var ErrUnknownMode = errors.New("unknown environment mode")

// ErrUnknownLane is returned by ParseLane for unrecognized lane names.
var ErrUnknownLane = errors.New("unknown lane")

// Mode selects the environment the scenario runs in.
type Mode string

const (
	// ModeUI models a UI application with a synchronization context
	// (WPF, WinForms): captured continuations come back to the UI thread.
	ModeUI Mode = "ui"
	// ModeServer models an environment without a context (ASP.NET Core,
	// console): continuations always run on the thread pool.
	ModeServer Mode = "server"
)

// ParseMode resolves an environment name, accepting the common host names
// as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ui", "wpf", "winforms":
		return ModeUI, nil
	case "server", "aspnetcore", "aspnet", "console":
		return ModeServer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m == ModeUI || m == ModeServer
}

// CapturesContext reports whether awaits in this mode capture a context by default.
func (m Mode) CapturesContext() bool {
	return m == ModeUI
}

// Toggle returns the other mode. Invalid modes toggle to ModeUI.
func (m Mode) Toggle() Mode {
	if m == ModeUI {
		return ModeServer
	}
	return ModeUI
}

// LaneID names a conceptual execution context.
type LaneID string

// The displayable lanes.
const (
	LaneUI         LaneID = "ui"
	LaneThreadPool LaneID = "threadpool"
	LaneIO         LaneID = "io"
	LaneCaller     LaneID = "caller"

	// LaneAuto asks the engine to infer the lane from the operation's
	// continuation target, or from the mode's default lane when the event
	// names no operation.
	LaneAuto LaneID = "auto"
)

var lanes = []LaneID{LaneUI, LaneThreadPool, LaneIO, LaneCaller}

// Lanes returns the fixed set of lanes in display order.
func Lanes() []LaneID {
	out := make([]LaneID, len(lanes))
	copy(out, lanes)
	return out
}

// ParseLane resolves a lane name. "tp" is accepted for the thread pool and
// "auto" yields LaneAuto.
func ParseLane(s string) (LaneID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ui":
		return LaneUI, nil
	case "threadpool", "tp":
		return LaneThreadPool, nil
	case "io":
		return LaneIO, nil
	case "caller":
		return LaneCaller, nil
	case "auto":
		return LaneAuto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLane, s)
}

// Valid reports whether l is a concrete lane (LaneAuto is not).
func (l LaneID) Valid() bool {
	switch l {
	case LaneUI, LaneThreadPool, LaneIO, LaneCaller:
		return true
	}
	return false
}

// Lifecycle is the state of a tracked operation.
type Lifecycle string

// Lifecycle states, in progress order.
const (
	Created   Lifecycle = "created"
	Awaited   Lifecycle = "awaited"
	QueuedTP  Lifecycle = "queued_tp"
	RunningIO Lifecycle = "running_io"
	RunningTP Lifecycle = "running_tp"
	Completed Lifecycle = "completed"
)

// Rank orders lifecycle states by progress. Unknown states rank below Created.
func (s Lifecycle) Rank() int {
	switch s {
	case Created:
		return 0
	case Awaited, QueuedTP:
		return 1
	case RunningIO, RunningTP:
		return 2
	case Completed:
		return 3
	}
	return -1
}

// Advance returns next if it does not regress s, otherwise s.
func (s Lifecycle) Advance(next Lifecycle) Lifecycle {
	if next.Rank() >= s.Rank() && next.Rank() >= 0 {
		return next
	}
	return s
}

// Capture is the tri-state captureContext flag recorded by an await.
type Capture int8

// Capture values. CaptureUnset defers to the environment mode.
const (
	CaptureUnset Capture = iota
	CaptureTrue
	CaptureFalse
)

// CaptureOf converts an optional flag.
func CaptureOf(v *bool) Capture {
	switch {
	case v == nil:
		return CaptureUnset
	case *v:
		return CaptureTrue
	default:
		return CaptureFalse
	}
}

// Resolve returns the flag, or def when unset.
func (c Capture) Resolve(def bool) bool {
	switch c {
	case CaptureTrue:
		return true
	case CaptureFalse:
		return false
	}
	return def
}

// String returns "true", "false" or "unset".
func (c Capture) String() string {
	switch c {
	case CaptureTrue:
		return "true"
	case CaptureFalse:
		return "false"
	}
	return "unset"
}

// MarshalText implements encoding.TextMarshaler.
func (c Capture) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capture) UnmarshalText(b []byte) error {
	switch string(b) {
	case "true":
		*c = CaptureTrue
	case "false":
		*c = CaptureFalse
	case "unset", "":
		*c = CaptureUnset
	default:
		return fmt.Errorf("invalid capture flag %q", string(b))
	}
	return nil
}
