// Package core provides the replay tier: the rule table, the immutable world
// snapshot and the engine that applies one event to a snapshot.
//
// Apply is a pure function of (snapshot, event). It never fails: events it
// cannot apply (unknown type, missing fields, unresolvable lane) return the
// input snapshot unchanged so a renderer always has a frame to draw.
package core

import (
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/comalice/asynclanes/internal/primitives"
)

var (
	errUnknownType      = errors.New("unrecognized event type")
	errInvalidLane      = errors.New("invalid lane")
	errMissingField     = errors.New("missing required field")
	errUnknownOperation = errors.New("unknown operation")
	errNoFallback       = errors.New("no fallback lane for environment mode")
)

// Option applies configuration to Engine via functional options pattern.
type Option func(*Engine)

// Engine applies events to snapshots. Safe for concurrent use; it holds no
// mutable state. The zero value uses DefaultRules and the package logger.
type Engine struct {
	rules  RuleTable
	logger *zap.Logger
}

// NewEngine creates an Engine using DefaultRules unless configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rule table consulted by schedule_continuation.
func (e *Engine) Rules() RuleTable {
	if e.rules == nil {
		return DefaultRules
	}
	return e.rules
}

func (e *Engine) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	return Logger()
}

// Apply returns the snapshot that results from applying evt to s.
func (e *Engine) Apply(s Snapshot, evt primitives.Event) Snapshot {
	if evt == nil {
		return s
	}
	t := begin(s, evt)

	var err error
	switch ev := evt.(type) {
	case primitives.Call:
		err = e.call(t, ev)
	case primitives.Return:
		err = e.ret(t, ev)
	case primitives.Await:
		err = e.await(t, ev)
	case primitives.Yield:
		if !ev.Lane.Valid() {
			err = errInvalidLane
		}
	case primitives.IOStart:
		err = e.advance(t, ev.Operation, ev.Op, primitives.RunningIO)
	case primitives.IOComplete:
		err = e.advance(t, ev.Operation, "", primitives.Completed)
	case primitives.QueueWork:
		err = e.advance(t, ev.Operation, ev.Work, primitives.QueuedTP)
	case primitives.WorkStart:
		err = e.workStart(t, ev)
	case primitives.WorkComplete:
		err = e.advance(t, ev.Operation, "", primitives.Completed)
	case primitives.ScheduleContinuation:
		err = e.schedule(t, ev)
	case primitives.Resume:
		err = e.resume(t, ev)
	default:
		err = errUnknownType
	}

	if err != nil {
		e.log().Debug("event ignored",
			zap.String("event", evt.String()),
			zap.String("kind", string(evt.Kind())),
			zap.Error(err))
		return s
	}
	return t.commit()
}

// ResolveLane maps an explicit lane or LaneAuto to a concrete lane.
//
// LaneAuto with an operation uses its continuation target, falling back to
// the mode default; an unknown operation cannot be resolved. LaneAuto without
// an operation uses the mode default.
func ResolveLane(s Snapshot, ref primitives.LaneID, op string) (primitives.LaneID, bool) {
	lane, err := resolveLane(s, ref, op)
	return lane, err == nil
}

func resolveLane(s Snapshot, ref primitives.LaneID, op string) (primitives.LaneID, error) {
	if ref.Valid() {
		return ref, nil
	}
	if ref != primitives.LaneAuto {
		return "", errInvalidLane
	}
	if op != "" {
		o, ok := s.ops[op]
		if !ok {
			return "", errUnknownOperation
		}
		if o.ContinuationTarget.Valid() {
			return o.ContinuationTarget, nil
		}
		return fallbackLane(s.mode)
	}
	return fallbackLane(s.mode)
}

func fallbackLane(mode primitives.Mode) (primitives.LaneID, error) {
	switch mode {
	case primitives.ModeUI:
		return primitives.LaneUI, nil
	case primitives.ModeServer:
		return primitives.LaneThreadPool, nil
	}
	return "", errNoFallback
}

func (e *Engine) call(t *txn, ev primitives.Call) error {
	if !ev.Lane.Valid() {
		return errInvalidLane
	}
	if ev.Method == "" {
		return errMissingField
	}
	l := t.lane(ev.Lane)
	l.stack = append(l.stack, ev.Method)
	return nil
}

func (e *Engine) ret(t *txn, ev primitives.Return) error {
	if ev.Method == "" {
		return errMissingField
	}
	lane, err := resolveLane(t.base, ev.Lane, ev.Operation)
	if err != nil {
		return err
	}
	l := t.lane(lane)
	if top, ok := l.top(); ok && top == ev.Method {
		l.stack = l.stack[:len(l.stack)-1]
	}
	delete(l.suspended, ev.Method)
	return nil
}

func (e *Engine) await(t *txn, ev primitives.Await) error {
	if !ev.Lane.Valid() {
		return errInvalidLane
	}
	if ev.Method == "" || ev.Operation == "" {
		return errMissingField
	}
	o := t.ensureOp(ev.Operation, ev.Awaitable)
	o.State = o.State.Advance(primitives.Awaited)
	o.Capture = ev.Capture

	// Only frames that are on the stack can be suspended.
	if t.base.lanes[ev.Lane].contains(ev.Method) {
		l := t.lane(ev.Lane)
		if l.suspended == nil {
			l.suspended = map[string]struct{}{}
		}
		l.suspended[ev.Method] = struct{}{}
	}
	return nil
}

// advance moves an operation forward, relabeling it when label is non-empty.
func (e *Engine) advance(t *txn, op, label string, to primitives.Lifecycle) error {
	if op == "" {
		return errMissingField
	}
	o := t.ensureOp(op, label)
	if label != "" {
		o.Label = label
	}
	o.State = o.State.Advance(to)
	return nil
}

func (e *Engine) workStart(t *txn, ev primitives.WorkStart) error {
	if err := e.advance(t, ev.Operation, ev.Work, primitives.RunningTP); err != nil {
		return err
	}
	if ev.Worker != "" {
		t.ensureOp(ev.Operation, "").WorkerID = ev.Worker
	}
	return nil
}

func (e *Engine) schedule(t *txn, ev primitives.ScheduleContinuation) error {
	if ev.Operation == "" {
		return errMissingField
	}
	o := t.ensureOp(ev.Operation, ev.Operation)
	capture := o.Capture.Resolve(t.base.mode.CapturesContext())
	target := e.Rules().ContinuationTarget(t.base.mode, capture)
	if !target.Valid() {
		return errInvalidLane
	}
	o.ContinuationTarget = target
	if len(ev.Joins) > 0 {
		o.Joins = slices.Clone(ev.Joins)
	}
	return nil
}

func (e *Engine) resume(t *txn, ev primitives.Resume) error {
	if ev.Method == "" {
		return errMissingField
	}
	lane, err := resolveLane(t.base, ev.Lane, ev.Operation)
	if err != nil {
		return err
	}
	l := t.lane(lane)
	delete(l.suspended, ev.Method)
	if top, ok := l.top(); !ok || top != ev.Method {
		l.stack = append(l.stack, ev.Method)
	}
	return nil
}
