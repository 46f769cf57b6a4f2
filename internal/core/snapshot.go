package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"

	"github.com/gowebpki/jcs"

	"github.com/comalice/asynclanes/internal/primitives"
)

// Operation is a tracked asynchronous unit of work. Created the first time an
// event references its ID and never removed during a replay.
type Operation struct {
	ID                 string               `json:"id" yaml:"id"`
	Label              string               `json:"label" yaml:"label"`
	State              primitives.Lifecycle `json:"state" yaml:"state"`
	Capture            primitives.Capture   `json:"captureContext" yaml:"captureContext"`
	ContinuationTarget primitives.LaneID    `json:"continuationTarget,omitempty" yaml:"continuationTarget,omitempty"`
	WorkerID           string               `json:"workerId,omitempty" yaml:"workerId,omitempty"`
	Joins              []string             `json:"joins,omitempty" yaml:"joins,omitempty"`
}

func (o Operation) clone() Operation {
	if o.Joins != nil {
		o.Joins = append([]string(nil), o.Joins...)
	}
	return o
}

// laneState is the mutable form of a lane. Instances reachable from a
// Snapshot are never written; the engine clones before touching one.
type laneState struct {
	stack     []string
	suspended map[string]struct{}
}

func (l *laneState) clone() *laneState {
	c := &laneState{}
	if l == nil {
		return c
	}
	c.stack = slices.Clone(l.stack)
	if len(l.suspended) > 0 {
		c.suspended = maps.Clone(l.suspended)
	}
	return c
}

func (l *laneState) top() (string, bool) {
	if l == nil || len(l.stack) == 0 {
		return "", false
	}
	return l.stack[len(l.stack)-1], true
}

func (l *laneState) contains(method string) bool {
	return l != nil && slices.Contains(l.stack, method)
}

// Snapshot is one immutable world state. Applying an event produces a new
// Snapshot; unchanged lanes and operations are shared between the two.
type Snapshot struct {
	mode  primitives.Mode
	lanes map[primitives.LaneID]*laneState
	ops   map[string]*Operation
	order []string
	last  primitives.Event
}

// NewSnapshot returns the empty initial snapshot for mode.
func NewSnapshot(mode primitives.Mode) Snapshot {
	s := Snapshot{
		mode:  mode,
		lanes: make(map[primitives.LaneID]*laneState, 4),
		ops:   map[string]*Operation{},
	}
	for _, id := range primitives.Lanes() {
		s.lanes[id] = &laneState{}
	}
	return s
}

// Mode returns the environment the snapshot was created for.
func (s Snapshot) Mode() primitives.Mode { return s.mode }

// Stack returns a copy of the lane's call stack, innermost call last.
func (s Snapshot) Stack(lane primitives.LaneID) []string {
	l, ok := s.lanes[lane]
	if !ok || len(l.stack) == 0 {
		return []string{}
	}
	return slices.Clone(l.stack)
}

// Top returns the innermost active call on lane.
func (s Snapshot) Top(lane primitives.LaneID) (string, bool) {
	return s.lanes[lane].top()
}

// Suspended returns the methods suspended on lane, sorted.
func (s Snapshot) Suspended(lane primitives.LaneID) []string {
	l, ok := s.lanes[lane]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(l.suspended))
	for m := range l.suspended {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// IsSuspended reports whether method is awaiting completion on lane.
func (s Snapshot) IsSuspended(lane primitives.LaneID, method string) bool {
	l, ok := s.lanes[lane]
	if !ok {
		return false
	}
	_, found := l.suspended[method]
	return found
}

// Operation returns a copy of the tracked operation.
func (s Snapshot) Operation(id string) (Operation, bool) {
	o, ok := s.ops[id]
	if !ok {
		return Operation{}, false
	}
	return o.clone(), true
}

// Operations returns all tracked operations in first-seen order.
func (s Snapshot) Operations() []Operation {
	out := make([]Operation, 0, len(s.order))
	for _, id := range s.order {
		if o, ok := s.ops[id]; ok {
			out = append(out, o.clone())
		}
	}
	return out
}

// LastEvent returns the most recently applied event, or nil.
func (s Snapshot) LastEvent() primitives.Event { return s.last }

// Equal reports whether both snapshots describe the same world state.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.mode != o.mode {
		return false
	}
	for _, id := range primitives.Lanes() {
		if !slices.Equal(s.Stack(id), o.Stack(id)) || !slices.Equal(s.Suspended(id), o.Suspended(id)) {
			return false
		}
	}
	if !reflect.DeepEqual(s.Operations(), o.Operations()) {
		return false
	}
	return reflect.DeepEqual(s.last, o.last)
}

// LaneView is the exported form of one lane.
type LaneView struct {
	ID        primitives.LaneID `json:"id" yaml:"id"`
	Stack     []string          `json:"stack" yaml:"stack"`
	Suspended []string          `json:"suspended" yaml:"suspended"`
}

// SnapshotView is the serializable form of a Snapshot read by renderers.
type SnapshotView struct {
	Mode       primitives.Mode `json:"mode" yaml:"mode"`
	Lanes      []LaneView      `json:"lanes" yaml:"lanes"`
	Operations []Operation     `json:"operations" yaml:"operations"`
	LastEvent  string          `json:"lastEvent,omitempty" yaml:"lastEvent,omitempty"`
}

// View returns the exported form of s.
func (s Snapshot) View() SnapshotView {
	v := SnapshotView{
		Mode:       s.mode,
		Operations: s.Operations(),
	}
	for _, id := range primitives.Lanes() {
		v.Lanes = append(v.Lanes, LaneView{
			ID:        id,
			Stack:     s.Stack(id),
			Suspended: s.Suspended(id),
		})
	}
	if s.last != nil {
		v.LastEvent = s.last.String()
	}
	return v
}

// Fingerprint hashes the RFC 8785 canonical JSON of the snapshot view.
// Equal world states always produce the same fingerprint.
func (s Snapshot) Fingerprint() (string, error) {
	data, err := json.Marshal(s.View())
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	canon, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// txn builds the successor of base, cloning lanes and operations on first write.
type txn struct {
	base        Snapshot
	next        Snapshot
	lanesCopied bool
	opsCopied   bool
	touched     map[primitives.LaneID]bool
	touchedOps  map[string]bool
}

func begin(base Snapshot, evt primitives.Event) *txn {
	next := base
	next.last = evt
	return &txn{base: base, next: next}
}

// lane returns a private, writable copy of the lane.
func (t *txn) lane(id primitives.LaneID) *laneState {
	if !t.lanesCopied {
		t.next.lanes = maps.Clone(t.base.lanes)
		if t.next.lanes == nil {
			t.next.lanes = map[primitives.LaneID]*laneState{}
		}
		t.touched = map[primitives.LaneID]bool{}
		t.lanesCopied = true
	}
	if !t.touched[id] {
		t.next.lanes[id] = t.next.lanes[id].clone()
		t.touched[id] = true
	}
	return t.next.lanes[id]
}

func (t *txn) copyOps() {
	if t.opsCopied {
		return
	}
	t.next.ops = maps.Clone(t.base.ops)
	if t.next.ops == nil {
		t.next.ops = map[string]*Operation{}
	}
	t.touchedOps = map[string]bool{}
	t.opsCopied = true
}

// ensureOp returns a writable operation, creating it with label (or its ID)
// when the log references it for the first time.
func (t *txn) ensureOp(id, label string) *Operation {
	t.copyOps()
	if t.touchedOps[id] {
		return t.next.ops[id]
	}
	if o, ok := t.next.ops[id]; ok {
		c := o.clone()
		t.next.ops[id] = &c
	} else {
		if label == "" {
			label = id
		}
		t.next.ops[id] = &Operation{ID: id, Label: label, State: primitives.Created}
		t.next.order = append(slices.Clip(t.next.order), id)
	}
	t.touchedOps[id] = true
	return t.next.ops[id]
}

func (t *txn) commit() Snapshot { return t.next }
