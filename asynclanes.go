// Package asynclanes replays recorded async/await event logs and shows, step by
// step, which lane each piece of work runs on and where every continuation
// resumes.
//
// A replay is a pure fold of Engine.Apply over a log starting from an empty
// Snapshot; a Session wraps that fold with a cursor that can step forward,
// jump anywhere and reset.
//
//	sc, _ := asynclanes.LoadScenario("io_await_readasync")
//	s := asynclanes.NewSession(sc, asynclanes.ModeServer)
//	for s.Step() {
//		fmt.Println(s.Frame().Note())
//	}
package asynclanes

import (
	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/internal/scenario"
	"github.com/comalice/asynclanes/timeline"
)

type (
	Event     = primitives.Event
	Mode      = primitives.Mode
	LaneID    = primitives.LaneID
	Lifecycle = primitives.Lifecycle
	Capture   = primitives.Capture

	Engine    = core.Engine
	Snapshot  = core.Snapshot
	Operation = core.Operation
	RuleTable = core.RuleTable

	Scenario = scenario.Scenario
	Session  = timeline.Session
	Frame    = timeline.Frame
)

const (
	ModeUI     = primitives.ModeUI
	ModeServer = primitives.ModeServer

	LaneUI         = primitives.LaneUI
	LaneThreadPool = primitives.LaneThreadPool
	LaneIO         = primitives.LaneIO
	LaneCaller     = primitives.LaneCaller
	LaneAuto       = primitives.LaneAuto

	// Start is the index before the first event.
	Start = timeline.Start
)

var (
	ErrNotFound = scenario.ErrNotFound
	ErrInvalid  = scenario.ErrInvalid
)

// NewEngine returns a replay engine using the default rule table.
func NewEngine() *Engine { return core.NewEngine() }

// NewSnapshot returns the empty snapshot for mode.
func NewSnapshot(mode Mode) Snapshot { return core.NewSnapshot(mode) }

// Replay folds log over the empty snapshot for mode.
func Replay(log []Event, mode Mode) Snapshot {
	_, s := timeline.NewDriver().JumpTo(log, len(log)-1, mode)
	return s
}

// Scenarios returns the built-in scenarios in display order.
func Scenarios() ([]*Scenario, error) { return scenario.Catalog() }

// LoadScenario returns a built-in scenario by id.
func LoadScenario(id string) (*Scenario, error) { return scenario.Lookup(id) }

// LoadScenarioFile parses a scenario from a YAML file.
func LoadScenarioFile(path string) (*Scenario, error) { return scenario.LoadFile(path) }

// NewSession starts a replay of sc in mode.
func NewSession(sc *Scenario, mode Mode) *Session {
	return timeline.NewSession(sc.ID, sc.Events, mode)
}
