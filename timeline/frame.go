package timeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
)

// Frame is what a renderer draws after each step.
type Frame struct {
	SessionID  uuid.UUID
	ScenarioID string
	Index      int
	Total      int
	// Event is the event at Index, nil at Start.
	Event    primitives.Event
	Snapshot core.Snapshot
}

// AtStart reports whether no event has been applied yet.
func (f Frame) AtStart() bool { return f.Index <= Start }

// AtEnd reports whether the last event of the log has been applied.
func (f Frame) AtEnd() bool { return f.Index >= f.Total-1 }

// Note returns the display note of the current event.
func (f Frame) Note() string {
	if f.Event == nil {
		return ""
	}
	return f.Event.Note()
}

// FramePublisher receives frames as a Player produces them.
type FramePublisher interface {
	Publish(ctx context.Context, f Frame) error
}
