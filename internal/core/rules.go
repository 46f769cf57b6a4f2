package core

import "github.com/comalice/asynclanes/internal/primitives"

// RuleTable decides which lane a suspended computation resumes on.
type RuleTable interface {
	ContinuationTarget(mode primitives.Mode, capture bool) primitives.LaneID
}

// RuleFunc adapts a plain function to RuleTable.
type RuleFunc func(mode primitives.Mode, capture bool) primitives.LaneID

// ContinuationTarget calls f.
func (f RuleFunc) ContinuationTarget(mode primitives.Mode, capture bool) primitives.LaneID {
	return f(mode, capture)
}

// DefaultRules resumes on the UI lane only when the environment captures a
// context and the await asked for it; everything else goes to the thread pool.
var DefaultRules RuleTable = RuleFunc(func(mode primitives.Mode, capture bool) primitives.LaneID {
	if mode == primitives.ModeUI && capture {
		return primitives.LaneUI
	}
	return primitives.LaneThreadPool
})
