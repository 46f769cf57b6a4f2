// Event provides the immutable event records replayed by the engine.
//
// Event is a tagged union: one struct per event type, each carrying only the
// fields that type needs. Use the New* constructors, which validate required
// fields. The engine never mutates or generates events.
//
// Example:
//
//	evt, err := NewAwait(LaneUI, "FooAsync", "t1", "io", CaptureTrue)
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEvent is wrapped by every constructor validation error.
var ErrInvalidEvent = errors.New("invalid event")

// Kind is the type tag of an event record.
type Kind string

const (
	KindCall                 Kind = "call"
	KindReturn               Kind = "return"
	KindAwait                Kind = "await"
	KindYield                Kind = "yield"
	KindIOStart              Kind = "io_start"
	KindIOComplete           Kind = "io_complete"
	KindQueueWork            Kind = "queue_tp"
	KindWorkStart            Kind = "tp_start"
	KindWorkComplete         Kind = "tp_complete"
	KindScheduleContinuation Kind = "schedule_continuation"
	KindResume               Kind = "resume"
)

// Kinds returns the known event vocabulary.
func Kinds() []Kind {
	return []Kind{
		KindCall, KindReturn, KindAwait, KindYield,
		KindIOStart, KindIOComplete,
		KindQueueWork, KindWorkStart, KindWorkComplete,
		KindScheduleContinuation, KindResume,
	}
}

// Event is one record of a scenario log.
type Event interface {
	Kind() Kind
	Note() string
	String() string
}

// Meta carries display-only fields shared by all events: At is the scenario's
// logical timestamp and Comment the explanation returned by Note.
type Meta struct {
	At      int
	Comment string
}

// Note returns the human-readable explanation of the step.
func (m Meta) Note() string { return m.Comment }

// Call pushes Method onto Lane's stack.
type Call struct {
	Meta
	Lane   LaneID
	Method string
}

// Return pops Method from the resolved lane when it is on top.
type Return struct {
	Meta
	Lane      LaneID // concrete lane or LaneAuto
	Method    string
	Operation string // optional, used to resolve LaneAuto
}

// Await tracks Operation and suspends Method on Lane. Capture records the
// captureContext flag used later by schedule_continuation.
type Await struct {
	Meta
	Lane      LaneID
	Method    string
	Operation string
	Awaitable string
	Capture   Capture
}

// Yield is purely observational: control returns to the caller while the
// method stays logically suspended.
type Yield struct {
	Meta
	Lane   LaneID
	Method string
}

// IOStart is the io_start event; Op describes the I/O call.
type IOStart struct {
	Meta
	Operation string
	Op        string
}

// IOComplete is the io_complete event.
type IOComplete struct {
	Meta
	Operation string
}

// QueueWork is the queue_tp event.
type QueueWork struct {
	Meta
	Operation string
	Work      string
}

// WorkStart is the tp_start event.
type WorkStart struct {
	Meta
	Operation string
	Work      string
	Worker    string
}

// WorkComplete is the tp_complete event.
type WorkComplete struct {
	Meta
	Operation string
	Worker    string
}

// ScheduleContinuation records where the operation's continuation resumes.
// Joins optionally lists the constituents of a fan-in pseudo-operation; it is
// informational only.
type ScheduleContinuation struct {
	Meta
	Operation string
	Joins     []string
}

// Resume continues Method on the resolved lane and clears its suspension there.
type Resume struct {
	Meta
	Lane      LaneID // concrete lane or LaneAuto
	Method    string
	Operation string
}

// Unknown holds a record whose type tag is not part of the vocabulary.
type Unknown struct {
	Meta
	Type string
}

// Kind returns the record's type tag.
func (Call) Kind() Kind                 { return KindCall }
func (Return) Kind() Kind               { return KindReturn }
func (Await) Kind() Kind                { return KindAwait }
func (Yield) Kind() Kind                { return KindYield }
func (IOStart) Kind() Kind              { return KindIOStart }
func (IOComplete) Kind() Kind           { return KindIOComplete }
func (QueueWork) Kind() Kind            { return KindQueueWork }
func (WorkStart) Kind() Kind            { return KindWorkStart }
func (WorkComplete) Kind() Kind         { return KindWorkComplete }
func (ScheduleContinuation) Kind() Kind { return KindScheduleContinuation }
func (Resume) Kind() Kind               { return KindResume }
func (u Unknown) Kind() Kind            { return Kind(u.Type) }

// String renders the record on one line for logs and lint output.
func (e Call) String() string   { return format(e.Kind(), e.Lane, e.Method, "", "") }
func (e Return) String() string { return format(e.Kind(), e.Lane, e.Method, e.Operation, "") }
func (e Await) String() string  { return format(e.Kind(), e.Lane, e.Method, e.Operation, "") }
func (e Yield) String() string  { return format(e.Kind(), e.Lane, e.Method, "", "") }
func (e IOStart) String() string {
	return format(e.Kind(), "", "", e.Operation, "op="+e.Op)
}
func (e IOComplete) String() string { return format(e.Kind(), "", "", e.Operation, "") }
func (e QueueWork) String() string {
	return format(e.Kind(), "", "", e.Operation, "work="+e.Work)
}
func (e WorkStart) String() string {
	extra := ""
	if e.Work != "" {
		extra = "work=" + e.Work
	}
	return format(e.Kind(), "", "", e.Operation, extra)
}
func (e WorkComplete) String() string { return format(e.Kind(), "", "", e.Operation, "") }
func (e ScheduleContinuation) String() string {
	extra := ""
	if len(e.Joins) > 0 {
		extra = "joins=" + strings.Join(e.Joins, ",")
	}
	return format(e.Kind(), "", "", e.Operation, extra)
}
func (e Resume) String() string  { return format(e.Kind(), e.Lane, e.Method, e.Operation, "") }
func (e Unknown) String() string { return e.Type }

// format renders the one-line form used by the timeline list.
func format(k Kind, lane LaneID, method, op, extra string) string {
	var b strings.Builder
	b.WriteString(string(k))
	if lane != "" {
		b.WriteString(" lane=")
		b.WriteString(string(lane))
	}
	if method != "" {
		b.WriteString(" method=")
		b.WriteString(method)
	}
	if op != "" {
		b.WriteString(" task=")
		b.WriteString(op)
	}
	if extra != "" && !strings.HasSuffix(extra, "=") {
		b.WriteString(" ")
		b.WriteString(extra)
	}
	return b.String()
}

func invalid(k Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidEvent, k, fmt.Sprintf(format, args...))
}

func requireLane(k Kind, lane LaneID, allowAuto bool) error {
	if lane.Valid() || (allowAuto && lane == LaneAuto) {
		return nil
	}
	return invalid(k, "lane %q is not allowed", lane)
}

func requireField(k Kind, name, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(k, "%s is required", name)
	}
	return nil
}

// NewCall pushes method onto lane.
func NewCall(lane LaneID, method string) (Call, error) {
	if err := requireLane(KindCall, lane, false); err != nil {
		return Call{}, err
	}
	if err := requireField(KindCall, "method", method); err != nil {
		return Call{}, err
	}
	return Call{Lane: lane, Method: method}, nil
}

// NewReturn pops method from lane. op may be empty.
func NewReturn(lane LaneID, method, op string) (Return, error) {
	if err := requireLane(KindReturn, lane, true); err != nil {
		return Return{}, err
	}
	if err := requireField(KindReturn, "method", method); err != nil {
		return Return{}, err
	}
	return Return{Lane: lane, Method: method, Operation: op}, nil
}

// NewAwait suspends method on lane until op completes.
func NewAwait(lane LaneID, method, op, awaitable string, capture Capture) (Await, error) {
	if err := requireLane(KindAwait, lane, false); err != nil {
		return Await{}, err
	}
	if err := requireField(KindAwait, "method", method); err != nil {
		return Await{}, err
	}
	if err := requireField(KindAwait, "taskId", op); err != nil {
		return Await{}, err
	}
	return Await{Lane: lane, Method: method, Operation: op, Awaitable: awaitable, Capture: capture}, nil
}

// NewYield records that method on lane gave control back to its caller.
func NewYield(lane LaneID, method string) (Yield, error) {
	if err := requireLane(KindYield, lane, false); err != nil {
		return Yield{}, err
	}
	return Yield{Lane: lane, Method: method}, nil
}

// NewIOStart starts the I/O operation op described by desc.
func NewIOStart(op, desc string) (IOStart, error) {
	if err := requireField(KindIOStart, "taskId", op); err != nil {
		return IOStart{}, err
	}
	return IOStart{Operation: op, Op: desc}, nil
}

// NewIOComplete completes the I/O operation op.
func NewIOComplete(op string) (IOComplete, error) {
	if err := requireField(KindIOComplete, "taskId", op); err != nil {
		return IOComplete{}, err
	}
	return IOComplete{Operation: op}, nil
}

// NewQueueWork queues work for the thread pool as operation op.
func NewQueueWork(op, work string) (QueueWork, error) {
	if err := requireField(KindQueueWork, "taskId", op); err != nil {
		return QueueWork{}, err
	}
	return QueueWork{Operation: op, Work: work}, nil
}

// NewWorkStart runs op on worker.
func NewWorkStart(op, worker, work string) (WorkStart, error) {
	if err := requireField(KindWorkStart, "taskId", op); err != nil {
		return WorkStart{}, err
	}
	return WorkStart{Operation: op, Worker: worker, Work: work}, nil
}

// NewWorkComplete finishes op on worker.
func NewWorkComplete(op, worker string) (WorkComplete, error) {
	if err := requireField(KindWorkComplete, "taskId", op); err != nil {
		return WorkComplete{}, err
	}
	return WorkComplete{Operation: op, Worker: worker}, nil
}

// NewScheduleContinuation picks the continuation lane for op. joins lists the
// constituents of a fan-in operation; empty entries are rejected.
func NewScheduleContinuation(op string, joins ...string) (ScheduleContinuation, error) {
	if err := requireField(KindScheduleContinuation, "taskId", op); err != nil {
		return ScheduleContinuation{}, err
	}
	for _, j := range joins {
		if err := requireField(KindScheduleContinuation, "joins entry", j); err != nil {
			return ScheduleContinuation{}, err
		}
	}
	var js []string
	if len(joins) > 0 {
		js = append([]string(nil), joins...)
	}
	return ScheduleContinuation{Operation: op, Joins: js}, nil
}

// NewResume resumes method on lane (or LaneAuto).
func NewResume(lane LaneID, method, op string) (Resume, error) {
	if err := requireLane(KindResume, lane, true); err != nil {
		return Resume{}, err
	}
	if err := requireField(KindResume, "method", method); err != nil {
		return Resume{}, err
	}
	return Resume{Lane: lane, Method: method, Operation: op}, nil
}

// WithMeta returns a copy of evt carrying m. Unknown event implementations are
// returned unchanged.
func WithMeta(evt Event, m Meta) Event {
	switch e := evt.(type) {
	case Call:
		e.Meta = m
		return e
	case Return:
		e.Meta = m
		return e
	case Await:
		e.Meta = m
		return e
	case Yield:
		e.Meta = m
		return e
	case IOStart:
		e.Meta = m
		return e
	case IOComplete:
		e.Meta = m
		return e
	case QueueWork:
		e.Meta = m
		return e
	case WorkStart:
		e.Meta = m
		return e
	case WorkComplete:
		e.Meta = m
		return e
	case ScheduleContinuation:
		e.Meta = m
		return e
	case Resume:
		e.Meta = m
		return e
	case Unknown:
		e.Meta = m
		return e
	}
	return evt
}
