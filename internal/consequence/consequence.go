// Package consequence implements the saturation engine that either closes
// a clause set under the paramodulation calculus (internal/paramod) or
// projects a chosen symbol out of it, within configured clause-size and
// clause-rank bounds. Grounded on
// original_source/paramodai/conseq_find.py's ConsequenceFinder.
package consequence

import (
	"errors"

	"go.uber.org/zap"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/order"
	"github.com/orozery/paramodai/internal/paramod"
	"github.com/orozery/paramodai/internal/smt"
)

// ErrContradiction is returned by Run when saturation derives the empty
// clause: the clause set (and so the abstract state it backs) is
// infeasible. Grounded on conseq_find.py's EmptyClauseException.
var ErrContradiction = errors.New("consequence: derived the empty clause")

// ClauseSet is the minimal surface the finder needs from its owning
// clause collection: the abstract state it saturates or projects. Defined
// here (rather than imported from internal/state) so internal/state can
// depend on internal/consequence without a import cycle — internal/state's
// *AbstractState satisfies this interface structurally.
type ClauseSet interface {
	Contains(c *logic.Clause) bool
	IsSubsumed(c *logic.Clause) bool
	AddClause(c *logic.Clause)
}

// Finder saturates a ClauseSet under ordered (symbol-eliminating) or
// unordered (plain-saturating) paramodulation, per conseq_find.py's
// ConsequenceFinder. A zero-value Finder is not usable; construct with New.
type Finder struct {
	state  ClauseSet
	target string // elimination target name; "" selects the unordered calculus
	cmp    *order.Comparator
	engine *paramod.Engine
	solver smt.Solver
	logger *zap.Logger

	pruneEnabled   bool
	pruneThreshold int
	timeToPrune    int

	ordered        []*logic.Clause // kept clauses, in admission order
	worklist       []*logic.Clause
	seen           map[*logic.Clause]bool
	contradiction  bool
}

// New returns a Finder that will saturate state, eliminating target if
// non-empty (the unordered variant otherwise runs), seeded with initial —
// the clauses currently in state. solver and logger may be nil. solver is
// consulted only by SimplifyLiteral; redundancy pruning runs when
// cfg.RemoveRedundantClauses is set and solver is non-nil, each pass on a
// fresh solver of its own.
func New(state ClauseSet, target string, initial []*logic.Clause, cfg *config.Config, solver smt.Solver, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmp := order.NewWithTarget(target)
	f := &Finder{
		state:          state,
		target:         target,
		cmp:            cmp,
		solver:         solver,
		logger:         logger,
		pruneEnabled:   cfg.RemoveRedundantClauses,
		pruneThreshold: cfg.PruneThreshold,
		seen:           map[*logic.Clause]bool{},
	}
	maxSize, maxRank := cfg.MaxClauseSize, cfg.MaxClauseRank
	if target == "" {
		f.engine = paramod.NewUnordered(cmp, maxSize, maxRank, f.admit)
	} else {
		f.engine = paramod.NewOrdered(cmp, maxSize, maxRank, f.admit)
	}
	for _, c := range initial {
		f.addToWorklist(c)
	}
	if f.pruneEnabled && solver != nil {
		f.timeToPrune = len(f.ordered) + f.pruneThreshold
	}
	return f
}

// addToWorklist implements add_to_worklist's admission policy (spec.md
// §4.3.4): drop tautologies, signal contradiction on the empty clause,
// drop already-seen or subsumed clauses, otherwise admit into the state,
// the worklist, and the kept-clause list.
func (f *Finder) addToWorklist(c *logic.Clause) {
	if c.IsTrue() {
		return
	}
	if c.IsEmpty() {
		f.contradiction = true
		return
	}
	if f.seen[c] {
		return
	}
	f.seen[c] = true
	if f.state.IsSubsumed(c) {
		return
	}
	f.worklist = append(f.worklist, c)
	f.ordered = append(f.ordered, c)
	f.state.AddClause(c)
}

// admit is the Engine's Emit callback: every clause reaching it has already
// passed the ground/size/rank filters inside internal/paramod.
func (f *Finder) admit(c *logic.Clause) {
	f.addToWorklist(c)
}

// Run drains the worklist, applying every inference rule between each
// popped clause and the full kept-clause list, admitting derivatives, until
// the worklist empties (or a contradiction is found). Grounded on
// ConsequenceFinder.run.
func (f *Finder) Run() error {
	if f.pruneEnabled && f.solver != nil {
		f.pruneRedundant()
	}
	for len(f.worklist) > 0 {
		if f.contradiction {
			return ErrContradiction
		}
		if f.pruneEnabled && f.solver != nil && len(f.ordered) > f.timeToPrune {
			f.pruneRedundant()
			f.timeToPrune = len(f.ordered) + f.pruneThreshold
			continue
		}
		c := f.worklist[len(f.worklist)-1]
		f.worklist = f.worklist[:len(f.worklist)-1]
		f.engine.Apply(c, f.ordered, f.target)
	}
	if f.contradiction {
		return ErrContradiction
	}
	if f.pruneEnabled && f.solver != nil {
		f.pruneRedundant()
	}
	return nil
}

// pruneRedundant asks the SMT solver, for every non-unit kept clause, in
// order, whether the accumulated context already entails it; entailed
// clauses are dropped rather than kept. Unit clauses are always asserted.
// Grounded on ConsequenceFinder._remove_redundant_clauses.
func (f *Finder) pruneRedundant() {
	solver := smt.NewCongruenceSolver() // fresh per pass, matching Solver()
	kept := f.ordered[:0:0]
	for _, c := range f.ordered {
		if len(c.Literals) == 1 {
			solver.Assert(c.Literals[0])
			kept = append(kept, c)
			continue
		}
		solver.Push()
		for _, l := range c.Literals {
			solver.Assert(l.Negate())
		}
		res := solver.Check()
		solver.Pop()
		if res == smt.Unsat {
			continue // entailed by context already asserted; drop
		}
		for _, l := range c.Literals {
			solver.Assert(l)
		}
		kept = append(kept, c)
	}
	f.ordered = kept
	f.logger.Debug("pruned redundant clauses", zap.Int("kept", len(kept)))
}

// SimplifyLiteral consults the solver seeded with the finder's current
// context: if l is false given that context it returns FalseLiteral; if
// l's negation is false (i.e. l is implied) it asserts l and returns
// TrueLiteral; otherwise it returns l unchanged. Grounded on
// ConsequenceFinder.simplify_literal — dead code in the Python original
// (never called there either), kept here since spec.md §4.3.5 documents it
// as part of the finder's contract.
func (f *Finder) SimplifyLiteral(l *logic.Literal) *logic.Literal {
	if f.solver == nil {
		return l
	}
	if f.isFalseLiteral(l) {
		return logic.FalseLiteral
	}
	if f.isFalseLiteral(l.Negate()) {
		f.solver.Assert(l)
		return logic.TrueLiteral
	}
	return l
}

func (f *Finder) isFalseLiteral(l *logic.Literal) bool {
	if l.IsRaw() {
		return !l.Sign
	}
	f.solver.Push()
	f.solver.Assert(l)
	res := f.solver.Check()
	f.solver.Pop()
	return res == smt.Unsat
}
