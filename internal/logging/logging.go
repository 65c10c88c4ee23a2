// Package logging wires up the structured logger the driver and
// consequence finder take as an optional dependency, following the
// teacher's cmd/nerd/main.go PersistentPreRunE pattern: a single
// production zap.Logger built once at process start and passed down,
// rather than every package reaching for a global.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger, switched to debug level when verbose
// is set — the same shape as the teacher's rootCmd.PersistentPreRunE.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything, for callers (tests,
// library use of the core packages) that don't want output.
func Nop() *zap.Logger { return zap.NewNop() }
