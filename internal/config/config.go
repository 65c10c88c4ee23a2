// Package config holds the tunables the consequence finder, abstract state,
// and dataflow driver read at construction time: clause-size and clause-rank
// bounds, the redundancy-pruning threshold, and the back-edge propagation
// toggle. Grounded on the teacher's internal/config/config.go shape
// (Config struct + DefaultConfig + optional YAML file loading).
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Unbounded is the sentinel for "no bound configured" on either MaxClauseSize
// or MaxClauseRank. spec.md §6 and §9 note that the original Python encodes
// this as the float 2e2000, which silently overflows to +Inf — an accident
// of the source language, not a deliberate design (see DESIGN.md decision
// (b)). Here it is a proper named constant.
const Unbounded = math.MaxInt32

// Config holds all paramodai configuration.
type Config struct {
	// MaxClauseSize bounds the number of literals a retained clause may
	// carry. Unbounded disables the check.
	MaxClauseSize int `yaml:"max_clause_size"`

	// MaxClauseRank bounds a retained clause's structural rank. Unbounded
	// disables the check.
	MaxClauseRank int `yaml:"max_clause_rank"`

	// PruneThreshold is how many clauses the consequence finder admits
	// between redundancy-elimination passes against the SMT solver, when
	// that optional pass is enabled.
	PruneThreshold int `yaml:"prune_threshold"`

	// RemoveRedundantClauses turns on the optional SMT-backed redundancy
	// elimination pass inside the consequence finder's saturation loop.
	RemoveRedundantClauses bool `yaml:"remove_redundant_clauses"`

	// DeferBackEdges selects whether the dataflow driver defers back-edge
	// successors to the delayed worklist (re-merged with the coarser
	// saturation join) or propagates them immediately on the main worklist.
	// See DESIGN.md decision (d): the Python source hard-codes this off
	// (dead code, `if is_backward and False:`), so the default here
	// reproduces that de-facto behavior.
	DeferBackEdges bool `yaml:"defer_back_edges"`
}

// DefaultConfig returns the configuration the built-in scenarios run under
// absent a `-1` (unbounded) override from the CLI.
func DefaultConfig() *Config {
	return &Config{
		MaxClauseSize:          3,
		MaxClauseRank:          10,
		PruneThreshold:         100,
		RemoveRedundantClauses: false,
		DeferBackEdges:         false,
	}
}

// Load reads a YAML configuration file on top of DefaultConfig, returning
// the default unchanged if path is empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveBound converts a CLI bound argument (spec.md §6: "-1 denotes
// unbounded") to the internal Unbounded sentinel.
func ResolveBound(v int) int {
	if v < 0 {
		return Unbounded
	}
	return v
}
