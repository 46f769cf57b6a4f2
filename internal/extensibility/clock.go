// Package extensibility provides pluggable clocks for paced playback.
package extensibility

import (
	"sync"
	"time"

	"github.com/comalice/asynclanes/timeline"
)

// TickerClock is the wall-clock implementation backed by time.Ticker.
type TickerClock struct{}

// NewTicker starts a ticker firing every d.
func (TickerClock) NewTicker(d time.Duration) timeline.Ticker {
	t := &systemTicker{
		ch:     make(chan time.Time, 1),
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

type systemTicker struct {
	ch     chan time.Time
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (t *systemTicker) run() {
	for {
		select {
		case now := <-t.ticker.C:
			select {
			case t.ch <- now:
			default:
				// drop if the player is still busy with the previous tick
			}
		case <-t.stop:
			t.ticker.Stop()
			return
		}
	}
}

func (t *systemTicker) C() <-chan time.Time { return t.ch }

// Stop stops the ticker. Safe to call more than once.
func (t *systemTicker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// ManualClock delivers ticks only when Tick is called.
type ManualClock struct {
	ch      chan time.Time
	timeout time.Duration

	mu        sync.Mutex
	now       time.Time
	intervals []time.Duration
}

// NewManualClock creates a ManualClock. Tick gives up after timeout when no
// ticker is receiving.
func NewManualClock(timeout time.Duration) *ManualClock {
	return &ManualClock{
		ch:      make(chan time.Time),
		timeout: timeout,
		now:     time.Unix(0, 0),
	}
}

// NewTicker records d and returns a ticker sharing the clock's channel.
func (c *ManualClock) NewTicker(d time.Duration) timeline.Ticker {
	c.mu.Lock()
	c.intervals = append(c.intervals, d)
	c.mu.Unlock()
	return manualTicker{ch: c.ch}
}

// Intervals returns the durations of every ticker created so far.
func (c *ManualClock) Intervals() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.intervals...)
}

// Tick hands one tick to a waiting ticker. It reports false if nobody
// received it before the timeout.
func (c *ManualClock) Tick() bool {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	c.mu.Unlock()

	select {
	case c.ch <- now:
		return true
	case <-time.After(c.timeout):
		return false
	}
}

type manualTicker struct {
	ch chan time.Time
}

func (t manualTicker) C() <-chan time.Time { return t.ch }

func (manualTicker) Stop() {}
