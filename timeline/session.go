package timeline

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
)

// Session is one replay of a scenario: the log, the environment mode, the
// current index and the snapshot at that index.
type Session struct {
	id       uuid.UUID
	scenario string
	log      []primitives.Event
	driver   *Driver

	mu    sync.RWMutex
	mode  primitives.Mode
	index int
	snap  core.Snapshot
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDriver replays the session through d.
func WithDriver(d *Driver) SessionOption {
	return func(s *Session) {
		if d != nil {
			s.driver = d
		}
	}
}

// NewSession starts a replay of log at Start. The log is copied.
func NewSession(scenarioID string, log []primitives.Event, mode primitives.Mode, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New(),
		scenario: scenarioID,
		log:      slices.Clone(log),
		mode:     mode,
		index:    Start,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewDriver()
	}
	s.snap = s.driver.Reset(mode)
	Logger().Debug("session created",
		zap.Stringer("session", s.id),
		zap.String("scenario", scenarioID),
		zap.Int("events", len(log)),
		zap.String("mode", string(mode)))
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// ScenarioID returns the identifier of the replayed scenario.
func (s *Session) ScenarioID() string { return s.scenario }

// Len returns the number of events in the log.
func (s *Session) Len() int { return len(s.log) }

// Event returns the event at index i.
func (s *Session) Event(i int) (primitives.Event, bool) {
	if i < 0 || i >= len(s.log) {
		return nil, false
	}
	return s.log[i], true
}

// Mode returns the current environment mode.
func (s *Session) Mode() primitives.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Index returns the index of the last applied event, or Start.
func (s *Session) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// AtEnd reports whether every event has been applied.
func (s *Session) AtEnd() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index >= len(s.log)-1
}

// Step applies the next event. It reports false at the end of the log.
func (s *Session) Step() bool {
	_, ok := s.Advance()
	return ok
}

// Advance applies the next event and returns the frame it produced, read under
// the same lock. At the end of the log it returns the current frame and false.
func (s *Session) Advance() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, snap := s.driver.StepForward(s.log, s.index, s.snap)
	if next == s.index {
		return s.frameLocked(), false
	}
	s.index, s.snap = next, snap
	Logger().Debug("step",
		zap.Stringer("session", s.id),
		zap.Int("index", next),
		zap.String("event", s.log[next].String()))
	return s.frameLocked(), true
}

// JumpTo rebuilds the snapshot at target, clamped to the log.
func (s *Session) JumpTo(target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index, s.snap = s.driver.JumpTo(s.log, target, s.mode)
}

// Reset returns to Start keeping the current mode.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index, s.snap = Start, s.driver.Reset(s.mode)
}

// SetMode switches the environment mode. Changing mode mid-replay is not
// supported, so the session always restarts from Start.
func (s *Session) SetMode(mode primitives.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.index, s.snap = Start, s.driver.Reset(mode)
}

// Frame returns the current frame.
func (s *Session) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameLocked()
}

func (s *Session) frameLocked() Frame {
	f := Frame{
		SessionID:  s.id,
		ScenarioID: s.scenario,
		Index:      s.index,
		Total:      len(s.log),
		Snapshot:   s.snap,
	}
	if s.index >= 0 && s.index < len(s.log) {
		f.Event = s.log[s.index]
	}
	return f
}
