// Package scenario builds small, hand-assembled instruction streams that
// exercise the full abstract-interpretation pipeline end to end — the
// stand-ins for disassembling the real benchmark binaries under
// original_source/benchmarks/, which is out of scope since this module
// never decodes real machine code (see internal/instr's package doc).
// Each scenario mirrors the proof goal and structure of its Python
// original (the same FuncTransformer-based call handling, the same
// startup axioms, the same "assert the negation, expect infeasible"
// proof pattern) over a synthetic program built from internal/instr's
// builders, small enough to reason about by hand.
package scenario

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/container"
	"github.com/orozery/paramodai/internal/driver"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

// Scenario bundles a synthetic container with the transformers and
// startup axioms its analysis needs, plus the entry function to run from.
// Grounded on how each benchmarks/*/test.py wires up its ForwardAnalyzer
// before calling run_from_func.
type Scenario struct {
	Name      string
	Container *container.Container
	EntryFunc string

	Transformers map[string]driver.FuncTransformer
	Assignments  []Axiom
}

// Axiom is one startup assumption asserted before analysis begins,
// grounded on forward_analysis.py's assign()-recorded tuples.
type Axiom struct {
	Dst, Src *term.Term
	Sign     bool
}

// Run builds a ForwardAnalyzer over s, wires its transformers and startup
// axioms, and runs it to a fixpoint from s.EntryFunc. Grounded on the
// test_runner.py pattern every benchmark test follows: construct, run,
// inspect the final state.
func Run(s *Scenario, conf *config.Config, logger *zap.Logger) (*driver.ForwardAnalyzer, error) {
	a := driver.New(s.Container, conf, logger)
	for name, transformer := range s.Transformers {
		if err := a.SetFuncTransformer(name, transformer); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	for _, ax := range s.Assignments {
		a.Assign(ax.Dst, ax.Src, ax.Sign)
	}
	if err := a.RunFromFunc(s.EntryFunc, nil); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return a, nil
}

// ProveInfeasible asserts hypotheses against a copy of s and reports
// whether they are jointly infeasible — the same "assert the negation of
// what you want to prove, expect unsat" idiom every benchmark test uses
// against a z3 solver, backed here by AbstractState's own congruence
// solver. Only sound when the relevant facts in s are ground unit
// clauses (internal/state's checkSolver documents that non-unit clauses
// are not modeled); every scenario in this package is built so its
// proof goal reduces to exactly that fragment.
func ProveInfeasible(s *state.AbstractState, hypotheses []state.Assertion) bool {
	proof := s.Copy()
	return !proof.HandleAssertions(hypotheses)
}

// newContainer builds an empty container.Container of container.FormatELF
// pre-populated with instrs and symbols — none of these scenarios care
// about the real container format, only that one is recognized.
func newContainer(symbols map[string]int64, instrs ...instr.Instruction) *container.Container {
	c := container.New(container.FormatELF)
	for name, addr := range symbols {
		c.Symbols[addr] = name
	}
	for _, in := range instrs {
		c.AddInstr(in)
	}
	return c
}

// finalState returns the analyzer's fixpoint state at the function's
// synthetic return block. Grounded on every benchmark test's
// `a[a.cfg[RETURN_ADDR]]` / `a.get_state(RETURN_ADDR)` lookup.
func finalState(a *driver.ForwardAnalyzer) *state.AbstractState {
	return a.GetState(instr.ReturnAddr)
}

// CheckNoNullDerefs walks every basic block a's analysis reached,
// replaying each instruction's effect in turn, and proves that every
// memory-load address it encounters along the way is infeasible as NULL.
// Grounded directly on cve_2014_7841/test.py's post-analysis scan: "for
// bb in basic_blocks: for instr in bb: for dst, src in assignments: if
// src.is_deref: ... prove addr != 0".
func CheckNoNullDerefs(a *driver.ForwardAnalyzer) error {
	for _, bb := range a.Graph().AllBlocks() {
		if bb.IsDummy() {
			continue
		}
		entry := a.GetState(bb.Addr)
		if entry == nil {
			continue
		}
		replay := entry.Copy()
		for _, in := range bb.Instrs {
			for _, asn := range in.Assignments() {
				if asn.Src == nil || !asn.Src.IsDeref() {
					continue
				}
				addr := asn.Src.Children[0]
				hyp := []state.Assertion{{Cond: "eq", Lhs: addr, Rhs: term.Const(0)}}
				if !ProveInfeasible(replay, hyp) {
					return fmt.Errorf("could not prove safe deref of %s at %#x", addr, in.Addr())
				}
			}
			driver.ApplyInstr(replay, in)
		}
	}
	return nil
}
