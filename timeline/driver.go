package timeline

import (
	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
)

// Start is the index of a snapshot to which no event has been applied.
const Start = -1

var defaultEngine = core.NewEngine()

// Driver navigates an event log. It holds no replay state of its own. The
// zero value replays through an engine with the default rules.
type Driver struct {
	engine *core.Engine
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithEngine replays through e instead of an engine with the default rules.
func WithEngine(e *core.Engine) DriverOption {
	return func(d *Driver) {
		if e != nil {
			d.engine = e
		}
	}
}

// NewDriver creates a Driver.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	if d.engine == nil {
		d.engine = core.NewEngine()
	}
	return d
}

// Engine returns the engine events are applied with.
func (d *Driver) Engine() *core.Engine {
	if d.engine == nil {
		return defaultEngine
	}
	return d.engine
}

// Reset returns the empty initial snapshot for mode.
func (d *Driver) Reset(mode primitives.Mode) core.Snapshot {
	return core.NewSnapshot(mode)
}

// StepForward applies log[index+1] to snap. At the end of the log (or with an
// index outside it) it returns its inputs unchanged.
func (d *Driver) StepForward(log []primitives.Event, index int, snap core.Snapshot) (int, core.Snapshot) {
	next := index + 1
	if next < 0 || next >= len(log) {
		return index, snap
	}
	return next, d.Engine().Apply(snap, log[next])
}

// JumpTo rebuilds the snapshot for mode and applies log[0..target] in order.
// A negative target yields the initial snapshot at Start; a target past the
// end is clamped to the last event.
func (d *Driver) JumpTo(log []primitives.Event, target int, mode primitives.Mode) (int, core.Snapshot) {
	snap := d.Reset(mode)
	if target < 0 || len(log) == 0 {
		return Start, snap
	}
	if target >= len(log) {
		target = len(log) - 1
	}
	e := d.Engine()
	for _, evt := range log[:target+1] {
		snap = e.Apply(snap, evt)
	}
	return target, snap
}
