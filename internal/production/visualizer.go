// Package production provides the presentation boundary: text traces, lane
// box layout, Graphviz export, frame exporters and frame publishing.
// Everything here reads snapshots; nothing feeds back into the replay.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
)

// TextVisualizer renders snapshots as plain text.
type TextVisualizer struct{}

// Trace returns the trace panel: environment, last event, per-lane stacks with
// suspended frames marked, and every tracked operation.
func (v *TextVisualizer) Trace(s core.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Environment: %s\n", s.Mode())
	if last := s.LastEvent(); last != nil {
		fmt.Fprintf(&b, "Last: %s\n", last)
	}
	b.WriteString("\nStacks:\n")
	for _, lane := range primitives.Lanes() {
		fmt.Fprintf(&b, "  %s: %s\n", lane, v.stackLine(s, lane))
	}
	b.WriteString("\nTasks:\n")
	ops := s.Operations()
	if len(ops) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, o := range ops {
		fmt.Fprintf(&b, "  %s: state=%s label=%s", o.ID, o.State, o.Label)
		if o.Capture != primitives.CaptureUnset {
			fmt.Fprintf(&b, " capture=%s", o.Capture)
		}
		if o.ContinuationTarget != "" {
			fmt.Fprintf(&b, " cont=%s", o.ContinuationTarget)
		}
		if o.WorkerID != "" {
			fmt.Fprintf(&b, " worker=%s", o.WorkerID)
		}
		if len(o.Joins) > 0 {
			fmt.Fprintf(&b, " joins=%s", strings.Join(o.Joins, ","))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *TextVisualizer) stackLine(s core.Snapshot, lane primitives.LaneID) string {
	stack := s.Stack(lane)
	if len(stack) == 0 {
		return "(empty)"
	}
	frames := make([]string, len(stack))
	for i, m := range stack {
		frames[i] = m
		if s.IsSuspended(lane, m) {
			frames[i] += " (awaiting)"
		}
	}
	return strings.Join(frames, " -> ")
}

// BoxClass selects how an operation box is drawn.
type BoxClass string

const (
	BoxUI           BoxClass = "ui"
	BoxIO           BoxClass = "io"
	BoxThreadPool   BoxClass = "tp"
	BoxContinuation BoxClass = "cont"
)

// BoxPosition is the horizontal slot of a box within its lane.
type BoxPosition int

const (
	PosQueued  BoxPosition = iota // left edge
	PosRunning                    // middle
	PosDone                       // right
)

// Box is one operation drawn on one lane.
type Box struct {
	Operation string
	Class     BoxClass
	Label     string
	Position  BoxPosition
	Visible   bool
}

// Boxes lays out every tracked operation on lane. Operations that do not
// belong on the lane at this step are returned hidden so renderers can animate
// them in and out.
func Boxes(s core.Snapshot, lane primitives.LaneID) []Box {
	ops := s.Operations()
	out := make([]Box, 0, len(ops))
	for _, o := range ops {
		out = append(out, Box{
			Operation: o.ID,
			Class:     boxClass(o, lane),
			Label:     boxLabel(o, lane),
			Position:  boxPosition(o, lane),
			Visible:   boxVisible(o, lane),
		})
	}
	return out
}

func boxVisible(o core.Operation, lane primitives.LaneID) bool {
	switch lane {
	case primitives.LaneIO:
		return o.State == primitives.RunningIO
	case primitives.LaneThreadPool:
		return o.State == primitives.QueuedTP || o.State == primitives.RunningTP ||
			(o.ContinuationTarget == primitives.LaneThreadPool && o.State == primitives.Completed)
	case primitives.LaneUI:
		return (o.ContinuationTarget == primitives.LaneUI && o.State == primitives.Completed) ||
			o.State == primitives.Awaited
	}
	return false
}

func boxClass(o core.Operation, lane primitives.LaneID) BoxClass {
	switch lane {
	case primitives.LaneIO:
		return BoxIO
	case primitives.LaneThreadPool:
		if o.State == primitives.QueuedTP || o.State == primitives.RunningTP {
			return BoxThreadPool
		}
		return BoxContinuation
	case primitives.LaneUI:
		if o.State == primitives.Awaited {
			return BoxUI
		}
		return BoxContinuation
	}
	return BoxUI
}

func boxLabel(o core.Operation, lane primitives.LaneID) string {
	if lane == primitives.LaneIO {
		return o.Label
	}
	if lane == primitives.LaneThreadPool && (o.State == primitives.QueuedTP || o.State == primitives.RunningTP) {
		return o.Label
	}
	if o.ContinuationTarget != "" {
		return "Continuation"
	}
	return o.Label
}

func boxPosition(o core.Operation, lane primitives.LaneID) BoxPosition {
	switch lane {
	case primitives.LaneIO:
		if o.State == primitives.RunningIO {
			return PosRunning
		}
		return PosQueued
	case primitives.LaneThreadPool:
		switch o.State {
		case primitives.QueuedTP:
			return PosQueued
		case primitives.RunningTP:
			return PosRunning
		}
		return PosDone
	case primitives.LaneUI:
		if o.State == primitives.Awaited {
			return PosRunning
		}
		return PosDone
	}
	return PosQueued
}

// DOTVisualizer renders snapshots as Graphviz DOT.
type DOTVisualizer struct{}

// ExportDOT draws each lane as a cluster of stack frames, operations as boxes
// and continuation targets and joins as edges.
func (v *DOTVisualizer) ExportDOT(s core.Snapshot) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Lanes {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)
	fmt.Fprintf(&buf, "  label=%q;\n", "environment: "+string(s.Mode()))

	for _, lane := range primitives.Lanes() {
		renderLane(&buf, s, lane)
	}

	for _, o := range s.Operations() {
		style := ""
		switch o.State {
		case primitives.Completed:
			style = ` style=filled fillcolor=lightgreen`
		case primitives.RunningIO, primitives.RunningTP:
			style = ` style=filled fillcolor=orange`
		}
		fmt.Fprintf(&buf, "  %q [label=%q shape=box%s];\n", "op:"+o.ID, fmt.Sprintf("%s: %s (%s)", o.ID, o.Label, o.State), style)
		if o.ContinuationTarget != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"continuation\" style=dashed];\n", "op:"+o.ID, "lane:"+string(o.ContinuationTarget))
		}
		for _, j := range o.Joins {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"join\"];\n", "op:"+j, "op:"+o.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// renderLane writes one lane cluster with an anchor node and its frames, outermost first.
func renderLane(buf *bytes.Buffer, s core.Snapshot, lane primitives.LaneID) {
	fmt.Fprintf(buf, "  subgraph %q {\n", "cluster_"+string(lane))
	fmt.Fprintf(buf, "    label=%q;\n", string(lane))
	fmt.Fprintf(buf, "    %q [label=%q shape=plaintext];\n", "lane:"+string(lane), string(lane))
	prev := "lane:" + string(lane)
	for i, m := range s.Stack(lane) {
		id := fmt.Sprintf("frame:%s:%d", lane, i)
		style := ""
		if s.IsSuspended(lane, m) {
			style = ` style=filled fillcolor=orange`
		}
		fmt.Fprintf(buf, "    %q [label=%q%s];\n", id, m, style)
		fmt.Fprintf(buf, "    %q -> %q [style=invis];\n", prev, id)
		prev = id
	}
	buf.WriteString("  }\n")
}

// ExportJSON serializes the snapshot view.
func (v *DOTVisualizer) ExportJSON(s core.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s.View(), "", "  ")
}
