// Package benchmarks provides replay engine and timeline benchmarks.
package benchmarks

import (
	"fmt"
	"testing"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/timeline"
)

func BenchmarkApply(b *testing.B) {
	e := core.NewEngine()
	log := GenFanOutLog(4)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := core.NewSnapshot(primitives.ModeUI)
		for _, evt := range log {
			s = e.Apply(s, evt)
		}
	}
}

func BenchmarkApplyNoOp(b *testing.B) {
	e := core.NewEngine()
	s := Replay(e, primitives.ModeUI, GenFanOutLog(4))
	evt := primitives.Resume{Lane: primitives.LaneAuto, Method: "Main", Operation: "missing"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Apply(s, evt)
	}
}

func BenchmarkReplayFanOut(b *testing.B) {
	e := core.NewEngine()
	for _, n := range []int{1, 10, 100} {
		log := GenFanOutLog(n)
		b.Run(fmt.Sprintf("ops=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Replay(e, primitives.ModeUI, log)
			}
		})
	}
}

func BenchmarkReplayDeep(b *testing.B) {
	e := core.NewEngine()
	for _, depth := range []int{1, 10, 50} {
		log := GenDeepLog(depth)
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Replay(e, primitives.ModeServer, log)
			}
		})
	}
}

func BenchmarkJumpTo(b *testing.B) {
	d := timeline.NewDriver()
	log := GenDeepLog(20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = d.JumpTo(log, i%len(log), primitives.ModeUI)
	}
}

func BenchmarkSessionStep(b *testing.B) {
	log := GenFanOutLog(10)
	s := timeline.NewSession("bench", log, primitives.ModeUI)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !s.Step() {
			s.Reset()
		}
	}
}
