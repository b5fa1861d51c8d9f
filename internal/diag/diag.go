// Package diag provides the structured logger used for the compiler's
// internal diagnostics (pipeline stage transitions, optimizer
// pass statistics). It is deliberately separate from the contractual
// stderr diagnostics a failed compile emits (§6/§7): those are a fixed
// single-line wire format the downstream tooling greps for, and must never
// be routed through zap's structured encoder.
package diag

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger writing leveled, human-readable lines to stderr.
// verbose raises the level from Info to Debug so pass-by-pass detail
// (token counts, instruction counts before/after each optimizer pass) shows
// up only when asked for.
func New(verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), level)
	return zap.New(core)
}

// Noop returns a logger that discards everything, for call sites (tests,
// library embedders) that have no interest in pipeline diagnostics.
func Noop() *zap.Logger { return zap.NewNop() }
