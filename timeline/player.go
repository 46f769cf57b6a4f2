package timeline

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Playback speed multipliers accepted by ClampSpeed.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0

	baseInterval = 900 * time.Millisecond
	minInterval  = 250 * time.Millisecond
)

// Clock creates tickers. Tests substitute a manually advanced clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// ClampSpeed limits a playback multiplier to [MinSpeed, MaxSpeed].
// NaN becomes 1.
func ClampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return 1
	}
	return math.Min(MaxSpeed, math.Max(MinSpeed, speed))
}

// Interval returns the delay between automatic steps at speed.
func Interval(speed float64) time.Duration {
	d := time.Duration(float64(baseInterval) / ClampSpeed(speed))
	return max(minInterval, d)
}

// Player steps a Session on a timer.
type Player struct {
	session   *Session
	clock     Clock
	publisher FramePublisher

	mu    sync.Mutex
	speed float64
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithSpeed sets the initial playback multiplier.
func WithSpeed(speed float64) PlayerOption {
	return func(p *Player) {
		p.speed = ClampSpeed(speed)
	}
}

// WithPublisher sends every frame produced by Run to pub.
func WithPublisher(pub FramePublisher) PlayerOption {
	return func(p *Player) {
		p.publisher = pub
	}
}

// NewPlayer creates a Player for s driven by clock.
func NewPlayer(s *Session, clock Clock, opts ...PlayerOption) *Player {
	p := &Player{session: s, clock: clock, speed: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Speed returns the playback multiplier.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// SetSpeed changes the playback multiplier. It takes effect on the next Run.
func (p *Player) SetSpeed(speed float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = ClampSpeed(speed)
	return p.speed
}

// Run steps the session once per tick until the end of the log, returning nil,
// or until ctx is done, returning ctx.Err().
func (p *Player) Run(ctx context.Context) error {
	if p.session.AtEnd() {
		return nil
	}
	ticker := p.clock.NewTicker(Interval(p.Speed()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			f, ok := p.session.Advance()
			if !ok {
				return nil
			}
			if p.publisher != nil {
				if err := p.publisher.Publish(ctx, f); err != nil {
					Logger().Warn("publish frame", zap.Error(err))
				}
			}
			if f.AtEnd() {
				return nil
			}
		}
	}
}
