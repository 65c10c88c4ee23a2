// Package state implements the abstract state: a set of clauses,
// conjunctively interpreted, representing a sound over-approximation of
// reachable machine states at one program point. Grounded on
// original_source/paramodai/state.py's AbstractState.
package state

import (
	"sort"

	"go.uber.org/zap"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/consequence"
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/smt"
	"github.com/orozery/paramodai/internal/term"
)

// dTmpMarker is the fixed global name state.py's kill renames every deref
// occurrence to before eliminating it. Safe as a single shared marker only
// because the driver is single-threaded and each Kill call fully completes
// before returning — see DESIGN.md decision (c).
const dTmpMarker = "d_tmp"

// AbstractState is a conjunctively-interpreted set of clauses. Construct
// one with New; the zero value has a nil clause map and no configuration,
// so adding a clause to it panics.
type AbstractState struct {
	Clauses map[*logic.Clause]bool

	cfg    *config.Config
	solver smt.Solver
	logger *zap.Logger
}

// New returns an empty AbstractState configured with cfg (bounds, pruning)
// and optional logger.
func New(cfg *config.Config, logger *zap.Logger) *AbstractState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbstractState{
		Clauses: map[*logic.Clause]bool{},
		cfg:     cfg,
		logger:  logger,
		solver:  smt.NewCongruenceSolver(),
	}
}

// Copy returns a shallow copy of s: a new clause set referencing the same
// interned Clause values, sharing s's configuration and logger. The driver
// copies a state before applying a block's instructions or a call
// transformer to it (§4.5/§5); MergeTwoStates saturates its operands in
// place.
func (s *AbstractState) Copy() *AbstractState {
	clauses := make(map[*logic.Clause]bool, len(s.Clauses))
	for c := range s.Clauses {
		clauses[c] = true
	}
	return &AbstractState{Clauses: clauses, cfg: s.cfg, logger: s.logger, solver: smt.NewCongruenceSolver()}
}

// Len reports the number of clauses in s.
func (s *AbstractState) Len() int { return len(s.Clauses) }

// Contains reports whether c is one of s's clauses.
func (s *AbstractState) Contains(c *logic.Clause) bool { return s.Clauses[c] }

// AddClause inserts c, ignoring the trivially-true clause — the
// consequence.ClauseSet method the Finder mutates through, and
// state.py's add_clause.
func (s *AbstractState) AddClause(c *logic.Clause) {
	if c.IsTrue() {
		return
	}
	s.Clauses[c] = true
}

// sortedClauses returns s's clauses in a deterministic order (by string
// form), used wherever iteration order must be stable (subsumption
// checking, printing, test fixtures).
func (s *AbstractState) sortedClauses() []*logic.Clause {
	out := make([]*logic.Clause, 0, len(s.Clauses))
	for c := range s.Clauses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IsSubsumed reports whether any other clause in s subsumes c. Grounded on
// state.py's is_subsumed (the size-based branch choice between iterating
// c's subclauses and iterating the whole state is an implementation detail
// of the Python original's hash-set performance; this always scans the
// state, which is equivalent and simpler).
func (s *AbstractState) IsSubsumed(c *logic.Clause) bool {
	for c2 := range s.Clauses {
		if c2 == c {
			continue
		}
		if c2.Subsumes(c) {
			return true
		}
	}
	return false
}

// Compactify removes every clause strictly subsumed by another clause in
// s. Grounded on state.py's compactify; per DESIGN.md decision (a), only
// subsumption removal runs by default (RemoveDerivedClauses is a separate,
// off-by-default strengthening pass).
func (s *AbstractState) Compactify() {
	var subsumed []*logic.Clause
	for _, c := range s.sortedClauses() {
		if s.IsSubsumed(c) {
			subsumed = append(subsumed, c)
		}
	}
	for _, c := range subsumed {
		delete(s.Clauses, c)
	}
}

// mustKeep reports whether a unit clause should survive RemoveDerivedClauses
// regardless of SMT entailment: one whose sole literal mentions a constant
// or a stack-relative term. Grounded on clause.py's must_keep (see
// SPEC_FULL.md §C.1).
func mustKeep(c *logic.Clause) bool {
	if len(c.Literals) != 1 {
		return false
	}
	for _, t := range c.Literals[0].Terms() {
		if t.IsConst() {
			return true
		}
		if _, ok := t.StackOffset(); ok {
			return true
		}
	}
	return false
}

// RemoveDerivedClauses is the optional, off-by-default strengthening pass:
// drop every non-must-keep clause that the solver can derive from the rest
// of the context, even when not strictly subsumed. Grounded on state.py's
// remove_derived_clauses (dead in the active Python code path — see
// DESIGN.md decision (a)); exposed here for callers who want it.
func (s *AbstractState) RemoveDerivedClauses() {
	clauses := s.sortedClauses()
	sort.Slice(clauses, func(i, j int) bool {
		if len(clauses[i].Literals) != len(clauses[j].Literals) {
			return len(clauses[i].Literals) < len(clauses[j].Literals)
		}
		return clauses[i].Rank() < clauses[j].Rank()
	})
	solver := smt.NewCongruenceSolver()
	for _, c := range clauses {
		if mustKeep(c) {
			for _, l := range c.Literals {
				solver.Assert(l)
			}
			continue
		}
		solver.Push()
		for _, l := range c.Literals {
			solver.Assert(l.Negate())
		}
		res := solver.Check()
		solver.Pop()
		if res == smt.Unsat {
			delete(s.Clauses, c)
			continue
		}
		for _, l := range c.Literals {
			solver.Assert(l)
		}
	}
}

// AddEq inserts the unit clause s = t (sign=false) or s ≠ t (sign=true).
func (s *AbstractState) AddEq(a, b *term.Term, sign bool) {
	s.AddClause(logic.GetClause(logic.GetLiteral(logic.GetAtom(a, b), sign)))
}

// Assertion is one (condition, lhs, rhs) edge or call-site constraint, per
// handle_assertions' contract: cond is one of eq/ne/lt/le/ge/gt; any other
// string is passed to term.Cmp, which panics unless it names a comparison
// operator.
type Assertion struct {
	Cond     string
	Lhs, Rhs *term.Term
}

// HandleAssertions converts each assertion into the corresponding atom,
// inserts it, checks feasibility via the SMT solver, and compactifies.
// Returns false when the resulting state is unsatisfiable (the caller must
// skip this edge). Grounded on state.py's handle_assertions.
func (s *AbstractState) HandleAssertions(assertions []Assertion) bool {
	for _, a := range assertions {
		switch a.Cond {
		case "eq":
			s.AddEq(a.Lhs, a.Rhs, false)
		case "ne":
			s.AddEq(a.Lhs, a.Rhs, true)
		case "le":
			s.AddEq(term.Cmp(term.OpGt, a.Lhs, a.Rhs), term.True, true)
		case "lt":
			s.AddEq(term.Cmp(term.OpGe, a.Lhs, a.Rhs), term.True, true)
		default:
			s.AddEq(term.Cmp(term.Op(a.Cond), a.Lhs, a.Rhs), term.True, false)
		}
	}
	if s.checkSolver() == smt.Unsat {
		return false
	}
	s.Compactify()
	return true
}

func (s *AbstractState) checkSolver() smt.Result {
	solver := smt.NewCongruenceSolver()
	for c := range s.Clauses {
		if len(c.Literals) != 1 {
			continue // congruence solver only models ground unit facts directly
		}
		solver.Assert(c.Literals[0])
	}
	return solver.Check()
}

// HandleAssignment implements the strongest-postcondition of dst := src.
// When src is nil, dst is invalidated by killing its name. Otherwise every
// nested compound sub-term is flattened into fresh temporaries so the
// final single assignment has flat operands, matching state.py's
// handle_assignment exactly (including routing the source through an
// intermediate temporary when dst's name already occurs in src).
func (s *AbstractState) HandleAssignment(dst, src *term.Term) {
	var tmps []*term.Term
	dstRank := dst.Rank()

	if src == nil {
		if dstRank > 1 {
			dst, tmps = s.evalSubTerms(dst)
		}
		s.Kill(dst)
		for _, t := range tmps {
			s.Kill(t)
		}
		return
	}

	srcRank := src.Rank()

	if srcRank > 1 {
		src, tmps = s.evalSubTerms(src)
	}
	if dstRank > 1 {
		if srcRank > 0 {
			tmp := term.Atomic("tmp")
			s.handleSimpleAssignment(tmp, src)
			src = tmp
			for _, t := range tmps {
				s.Kill(t)
			}
			tmps = nil
		}
		dst, tmps = s.evalSubTerms(dst)
	}

	if src.Names()[nameOf(dst)] {
		tmp := term.Atomic("tmp")
		s.handleSimpleAssignment(tmp, src)
		src = tmp
	}

	s.handleSimpleAssignment(dst, src)

	for _, t := range tmps {
		s.Kill(t)
	}
	if src == term.Atomic("tmp") {
		s.Kill(src)
	}
}

func (s *AbstractState) evalSubTerms(t *term.Term) (*term.Term, []*term.Term) {
	counter := 0
	return s.evalSubTermsRecursive(t, &counter)
}

func (s *AbstractState) evalSubTermsRecursive(t *term.Term, counter *int) (*term.Term, []*term.Term) {
	if t.Kind != term.KindCompound {
		return t, nil
	}
	var tmps []*term.Term
	children := make([]*term.Term, len(t.Children))
	for i, sub := range t.Children {
		if sub.Kind == term.KindCompound {
			flat, inner := s.evalSubTermsRecursive(sub, counter)
			tmp := term.Atomic(tempName(*counter))
			*counter++
			tmps = append(tmps, tmp)
			s.handleSimpleAssignment(tmp, flat)
			for _, t2 := range inner {
				s.Kill(t2)
			}
			children[i] = tmp
		} else {
			children[i] = sub
		}
	}
	return rebuildCompound(t.Op, children), tmps
}

func tempName(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return "tmp" + string(digits[n])
	}
	// scenario fixtures never nest deep enough to need more than one digit,
	// but fall back to a stable multi-digit form rather than panic.
	out := []byte{}
	for n > 0 {
		out = append([]byte{digits[n%10]}, out...)
		n /= 10
	}
	return "tmp" + string(out)
}

func rebuildCompound(op term.Op, children []*term.Term) *term.Term {
	switch op {
	case term.OpAdd:
		return term.Add(children[0], children[1])
	case term.OpMul:
		return term.Mul(children[0], children[1])
	case term.OpNeg:
		return term.Neg(children[0])
	case term.OpDeref:
		return term.Deref(children[0])
	default:
		return term.Compound(op, children...)
	}
}

// handleSimpleAssignment kills dst's prior value, then asserts dst = src.
// Grounded on state.py's _handle_simple_assignment.
func (s *AbstractState) handleSimpleAssignment(dst, src *term.Term) {
	s.Kill(dst)
	s.AddEq(dst, src, false)
}

// Kill removes every constraint on term's current value: a deref [a] is
// eliminated via the two-case marker expansion ("this cell's old value is
// irrelevant now, or it's some other cell equal to addr"), an
// atomic/compound name via KillName. Grounded on state.py's kill.
func (s *AbstractState) Kill(t *term.Term) {
	if t.IsDeref() {
		addr := t.Children[0]
		marker := term.Op(dTmpMarker)
		renamed := map[*logic.Clause]bool{}
		for c := range s.Clauses {
			renamed[renameClauseOp(c, term.OpDeref, marker)] = true
		}
		s.Clauses = renamed

		s.AddClause(logic.GetClause(
			logic.GetLiteral(logic.GetAtom(term.Deref(term.Var()), term.Compound(marker, term.Var())), false),
			logic.GetLiteral(logic.GetAtom(term.Var(), addr), false),
		))
		s.KillName(dTmpMarker)
		return
	}
	s.KillName(nameOf(t))
}

// renameClauseOp rewrites every occurrence of the from-headed compound term
// in c to a to-headed compound of the same children, throughout every
// literal. Grounded on term.py's rename, which (unlike this module's
// term.Term.Rename) renames a compound term's own operator symbol, not
// just atomic names — state.py's kill relies on that to retarget every
// existing deref into the d_tmp marker before eliminating it.
func renameClauseOp(c *logic.Clause, from, to term.Op) *logic.Clause {
	lits := make([]*logic.Literal, len(c.Literals))
	for i, l := range c.Literals {
		if l.IsRaw() {
			lits[i] = l
			continue
		}
		a := l.Atom
		lits[i] = logic.GetLiteral(logic.GetAtom(a.S.RenameOp(from, to), a.T.RenameOp(from, to)), l.Sign)
	}
	return logic.GetClause(lits...)
}

func nameOf(t *term.Term) string {
	if t.Kind == term.KindAtomic {
		return t.Name
	}
	return string(t.Op)
}

// KillName eliminates every constraint mentioning name: it runs the
// consequence finder with name as the elimination target, then drops every
// clause still mentioning it (the finder's postcondition guarantees none
// remain reachable via inference, but assignments already in the state
// before the call may still name-check), and compactifies. Grounded on
// state.py's kill_name.
func (s *AbstractState) KillName(name string) {
	f := consequence.New(s, name, s.clauseSlice(), s.cfg, s.solver, s.logger)
	_ = f.Run() // a contradiction mid-kill just means the state stays infeasible

	var toKill []*logic.Clause
	for c := range s.Clauses {
		if c.Names()[name] {
			toKill = append(toKill, c)
		}
	}
	for _, c := range toKill {
		delete(s.Clauses, c)
	}
	s.Compactify()
}

func (s *AbstractState) clauseSlice() []*logic.Clause {
	out := make([]*logic.Clause, 0, len(s.Clauses))
	for c := range s.Clauses {
		out = append(out, c)
	}
	return out
}

// AddConsequences saturates s in place under the unordered calculus
// (bounded only by s's configured size/rank), without eliminating any
// symbol. Grounded on state.py's add_consequences.
func (s *AbstractState) AddConsequences() error {
	f := consequence.New(s, "", s.clauseSlice(), s.cfg, s.solver, s.logger)
	return f.Run()
}

// IsEquivalent reports whether s and other hold exactly the same clause
// set, a syntactic stand-in for logical equivalence (no solver is
// consulted). Grounded on state.py's is_equivalent.
func (s *AbstractState) IsEquivalent(other *AbstractState) bool {
	// Two finite unit-clause-dominated states are equivalent exactly when
	// each entails the other; since the congruence solver only reasons
	// about ground facts, a sound syntactic approximation (equal clause
	// sets) suffices for the driver's delayed-worklist fixpoint check —
	// anything coarser would simply iterate once more, never unsoundly.
	if len(s.Clauses) != len(other.Clauses) {
		return false
	}
	for c := range s.Clauses {
		if !other.Clauses[c] {
			return false
		}
	}
	return true
}

// Prime returns a copy of s with every atomic name decorated with a
// trailing apostrophe (term.Prime), a way to denote a register's "new"
// value across a call-transformer boundary; the driver does not call it.
func (s *AbstractState) Prime() *AbstractState {
	out := s.Copy()
	clauses := map[*logic.Clause]bool{}
	for c := range out.Clauses {
		clauses[c.Rename(func(n string) string { return term.Atomic(n).Prime().Name })] = true
	}
	out.Clauses = clauses
	return out
}

// RemoveBigClauses drops every clause exceeding the configured size/rank
// bounds — the "resource exhaustion" policy of spec.md §7: silently
// discarded, soundness preserved, precision lost.
func (s *AbstractState) RemoveBigClauses() {
	maxSize, maxRank := s.cfg.MaxClauseSize, s.cfg.MaxClauseRank
	var big []*logic.Clause
	for c := range s.Clauses {
		if len(c.Literals) > maxSize || c.Rank() > maxRank {
			big = append(big, c)
		}
	}
	for _, c := range big {
		delete(s.Clauses, c)
	}
}

// Names returns the union of every clause's atomic names (including VAR,
// if any clause still carries an unassigned schema variable — it never
// should once a state is fully resolved, but the accessor mirrors
// state.py's names property exactly).
func (s *AbstractState) Names() map[string]bool {
	out := map[string]bool{}
	for c := range s.Clauses {
		for n := range c.Names() {
			out[n] = true
		}
	}
	return out
}

// AtomicNames returns the union of every clause's non-VAR atomic names.
func (s *AbstractState) AtomicNames() map[string]bool {
	out := map[string]bool{}
	for c := range s.Clauses {
		for n := range c.Names() {
			if n != term.VarName {
				out[n] = true
			}
		}
	}
	return out
}

// Intersect returns the clauses common to both s and other, as a new
// state.
func (s *AbstractState) Intersect(other *AbstractState) *AbstractState {
	out := New(s.cfg, s.logger)
	for c := range s.Clauses {
		if other.Clauses[c] {
			out.Clauses[c] = true
		}
	}
	return out
}

// Minus returns the clauses of s that are not also in other.
func (s *AbstractState) Minus(other *AbstractState) *AbstractState {
	out := New(s.cfg, s.logger)
	for c := range s.Clauses {
		if !other.Clauses[c] {
			out.Clauses[c] = true
		}
	}
	return out
}

// Merge folds states pairwise by MergeTwoStates, matching state.py's
// AbstractState.merge (a left fold over varargs; associativity of the join
// makes fold order immaterial).
func Merge(states ...*AbstractState) *AbstractState {
	if len(states) == 0 {
		return nil
	}
	merged := states[0]
	for _, s := range states[1:] {
		merged = MergeTwoStates(merged, s)
	}
	return merged
}

// MergeTwoStates implements the sound join (§4.4): when MaxClauseSize is
// bounded, saturate both operands in place (with an unbounded clause size
// no saturation runs), take the intersection of clause sets as the initial
// merged state, then
// add the disjunction of every leftover pair from each side, drop
// oversized results, and compactify.
func MergeTwoStates(a, b *AbstractState) *AbstractState {
	if a.cfg.MaxClauseSize != config.Unbounded {
		_ = a.AddConsequences()
		_ = b.AddConsequences()
	}

	merged := a.Intersect(b)
	aLeft := a.Minus(merged)
	bLeft := b.Minus(merged)

	for c1 := range aLeft.Clauses {
		for c2 := range bLeft.Clauses {
			merged.AddClause(c1.Or(c2))
		}
	}

	merged.RemoveBigClauses()
	merged.Compactify()

	return merged
}
