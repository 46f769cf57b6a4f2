package production

import (
	"context"

	"github.com/comalice/asynclanes/timeline"
)

// ChannelPublisher forwards frames to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch chan<- timeline.Frame
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- timeline.Frame) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish sends f without blocking. A full channel drops the frame; a done
// context returns its error.
func (p *ChannelPublisher) Publish(ctx context.Context, f timeline.Frame) error {
	select {
	case p.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

// Close closes the output channel. Publish must not be called afterwards.
func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
