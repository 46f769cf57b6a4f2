// Package core provides the replay tier of the visualizer.
// Options for configuring Engine instances.
package core

import "go.uber.org/zap"

// WithRules configures the Engine with a custom RuleTable.
// A nil table keeps DefaultRules.
func WithRules(r RuleTable) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}

// WithLogger configures the Engine with its own logger instead of the
// package logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}
