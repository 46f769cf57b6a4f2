package timeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/asynclanes/internal/extensibility"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/testutil"
	"github.com/comalice/asynclanes/timeline"
)

func TestSessionStepping(t *testing.T) {
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := timeline.NewSession("io", log, primitives.ModeUI)

	if s.ID() == uuid.Nil {
		t.Error("session id should be set")
	}
	if s.Index() != timeline.Start || s.Len() != len(log) {
		t.Errorf("new session index=%d len=%d", s.Index(), s.Len())
	}
	f := s.Frame()
	if !f.AtStart() || f.Event != nil || f.Note() != "" {
		t.Errorf("initial frame = %+v", f)
	}

	steps := 0
	for s.Step() {
		steps++
	}
	if steps != len(log) {
		t.Errorf("stepped %d times, want %d", steps, len(log))
	}
	if !s.AtEnd() || !s.Frame().AtEnd() {
		t.Error("session should be at end")
	}
	if s.Step() {
		t.Error("Step at end should report false")
	}
	if s.Frame().Event.String() != log[len(log)-1].String() {
		t.Error("frame event should be the last applied event")
	}
}

func TestSessionCopiesLog(t *testing.T) {
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := timeline.NewSession("io", log, primitives.ModeUI)
	log[0] = primitives.Unknown{Type: "mutated"}

	s.Step()
	if got := s.Snapshot().Stack(primitives.LaneUI); len(got) != 1 {
		t.Errorf("session replayed a mutated log: stack %v", got)
	}
}

func TestSessionJumpResetAndMode(t *testing.T) {
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := timeline.NewSession("io", log, primitives.ModeUI)

	s.JumpTo(5)
	if s.Index() != 5 {
		t.Fatalf("Index() = %d, want 5", s.Index())
	}
	if o, _ := s.Snapshot().Operation("t1"); o.ContinuationTarget != primitives.LaneUI {
		t.Errorf("ContinuationTarget = %s, want ui", o.ContinuationTarget)
	}
	if evt, ok := s.Event(5); !ok || s.Frame().Event.String() != evt.String() {
		t.Error("frame event should match Event(5)")
	}

	s.SetMode(primitives.ModeServer)
	if s.Index() != timeline.Start || s.Mode() != primitives.ModeServer {
		t.Errorf("SetMode should reset: index=%d mode=%s", s.Index(), s.Mode())
	}
	s.JumpTo(5)
	if o, _ := s.Snapshot().Operation("t1"); o.ContinuationTarget != primitives.LaneThreadPool {
		t.Errorf("server ContinuationTarget = %s, want threadpool", o.ContinuationTarget)
	}

	s.Reset()
	if s.Index() != timeline.Start || len(s.Snapshot().Operations()) != 0 {
		t.Error("Reset should return to the initial snapshot")
	}
	if s.Mode() != primitives.ModeServer {
		t.Error("Reset should keep the mode")
	}

	if _, ok := s.Event(-1); ok {
		t.Error("Event(-1) should not exist")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	frames []timeline.Frame
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, f timeline.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return p.err
}

func (p *recordingPublisher) indices() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.frames))
	for i, f := range p.frames {
		out[i] = f.Index
	}
	return out
}

func TestSpeedAndInterval(t *testing.T) {
	tests := []struct {
		speed float64
		want  time.Duration
	}{
		{1, 900 * time.Millisecond},
		{2, 450 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 250 * time.Millisecond},
		{10, 250 * time.Millisecond},
		{0.25, 3600 * time.Millisecond},
		{0, 3600 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := timeline.Interval(tt.speed); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}

	p := timeline.NewPlayer(nil, nil, timeline.WithSpeed(100))
	if p.Speed() != timeline.MaxSpeed {
		t.Errorf("Speed() = %v, want %v", p.Speed(), timeline.MaxSpeed)
	}
	if got := p.SetSpeed(0.01); got != timeline.MinSpeed {
		t.Errorf("SetSpeed(0.01) = %v, want %v", got, timeline.MinSpeed)
	}
}

func TestPlayerRunsToEnd(t *testing.T) {
	log := testutil.TaskRunLog()
	s := timeline.NewSession("taskrun", log, primitives.ModeUI)
	clock := extensibility.NewManualClock(time.Second)
	pub := &recordingPublisher{}
	p := timeline.NewPlayer(s, clock, timeline.WithSpeed(2), timeline.WithPublisher(pub))

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	for i := 0; i < len(log); i++ {
		if !clock.Tick() {
			t.Fatalf("tick %d not received", i)
		}
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return at end of log")
	}

	if !s.AtEnd() {
		t.Error("session should be at end")
	}
	if got := pub.indices(); len(got) != len(log) || got[len(got)-1] != len(log)-1 {
		t.Errorf("published indices = %v", got)
	}
	if iv := clock.Intervals(); len(iv) != 1 || iv[0] != 450*time.Millisecond {
		t.Errorf("ticker intervals = %v", iv)
	}

	// Already at end: Run returns immediately without a ticker.
	if err := p.Run(context.Background()); err != nil {
		t.Errorf("Run at end = %v", err)
	}
	if len(clock.Intervals()) != 1 {
		t.Error("Run at end should not start a ticker")
	}
}

func TestPlayerPauseAndResume(t *testing.T) {
	log := testutil.WhenAllLog()
	s := timeline.NewSession("whenall", log, primitives.ModeUI)
	clock := extensibility.NewManualClock(time.Second)
	p := timeline.NewPlayer(s, clock, timeline.WithPublisher(&recordingPublisher{err: errors.New("sink down")}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	clock.Tick()
	clock.Tick()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if s.Index() != 1 {
		t.Errorf("Index() = %d after two ticks, want 1", s.Index())
	}

	remaining := len(log) - 1 - s.Index()
	done = make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	for i := 0; i < remaining; i++ {
		if !clock.Tick() {
			t.Fatal("resumed player stopped receiving ticks")
		}
	}
	if err := <-done; err != nil {
		t.Errorf("resumed Run() = %v", err)
	}
}

func TestSessionAdvance(t *testing.T) {
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := timeline.NewSession("io", log, primitives.ModeUI)

	for i := range log {
		f, ok := s.Advance()
		if !ok || f.Index != i {
			t.Fatalf("Advance() = (%d, %v), want (%d, true)", f.Index, ok, i)
		}
		if f.Event.String() != log[i].String() {
			t.Errorf("frame %d event = %s, want %s", i, f.Event, log[i])
		}
		if !f.Snapshot.Equal(s.Snapshot()) {
			t.Errorf("frame %d snapshot differs from the session's", i)
		}
	}
	f, ok := s.Advance()
	if ok || f.Index != len(log)-1 || !f.AtEnd() {
		t.Errorf("Advance() at end = (%d, %v)", f.Index, ok)
	}
}

func TestPlayerPublishesStepFramesUnderConcurrentReset(t *testing.T) {
	log := testutil.IOAwaitLog(primitives.CaptureTrue)
	s := timeline.NewSession("io", log, primitives.ModeUI)
	clock := extensibility.NewManualClock(100 * time.Millisecond)
	pub := &recordingPublisher{}
	p := timeline.NewPlayer(s, clock, timeline.WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			s.Reset()
			time.Sleep(50 * time.Microsecond)
		}
	}()
	for range 30 {
		if !clock.Tick() {
			break
		}
	}
	wg.Wait()
	cancel()
	<-done

	d := timeline.NewDriver()
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.frames) == 0 {
		t.Fatal("no frames published")
	}
	for _, f := range pub.frames {
		if f.Index < 0 {
			t.Fatalf("published a frame at Start; only stepped frames are published")
		}
		_, want := d.JumpTo(log, f.Index, primitives.ModeUI)
		if !f.Snapshot.Equal(want) || f.Event.String() != log[f.Index].String() {
			t.Errorf("frame %d does not match the step that produced it", f.Index)
		}
	}
}
