// Package smt provides the pluggable decision-procedure interface the
// consequence finder and abstract state use to check feasibility of a set
// of ground equational and order facts, plus one concrete implementation.
//
// No SMT binding exists anywhere in the retrieval pack (see DESIGN.md);
// CongruenceSolver is a small, self-contained union-find congruence
// closure over equalities/disequalities, extended with a transitive
// strict/non-strict order-constraint graph, sufficient for the ground
// UF+order fragment this module's scenarios exercise (term.py's Z3_FUNCS
// table never models real multiplication or non-ground quantification,
// so neither does this solver).
package smt

import (
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/term"
)

// Result is the outcome of a Check call.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

// Solver is the external decision-procedure interface: assert ground
// facts, check consistency, and use push/pop to explore and backtrack a
// nested set of hypotheses — grounded on conseq_find.py's solver.add/
// push/pop/check usage.
type Solver interface {
	Assert(l *logic.Literal)
	Push()
	Pop()
	Check() Result
}

// CongruenceSolver is the only Solver implementation in this module.
type CongruenceSolver struct {
	frames []*frame
}

type frame struct {
	lits []*logic.Literal
}

// NewCongruenceSolver returns a ready-to-use solver with one empty frame.
func NewCongruenceSolver() *CongruenceSolver {
	return &CongruenceSolver{frames: []*frame{{}}}
}

func (s *CongruenceSolver) top() *frame { return s.frames[len(s.frames)-1] }

// Assert adds a ground literal as a standing fact in the current frame.
func (s *CongruenceSolver) Assert(l *logic.Literal) {
	s.top().lits = append(s.top().lits, l)
}

// Push opens a new, nested frame that Pop later discards.
func (s *CongruenceSolver) Push() {
	s.frames = append(s.frames, &frame{})
}

// Pop discards the most recently pushed frame.
func (s *CongruenceSolver) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *CongruenceSolver) allLiterals() []*logic.Literal {
	var out []*logic.Literal
	for _, f := range s.frames {
		out = append(out, f.lits...)
	}
	return out
}

// Check reports whether the conjunction of every asserted literal across
// all active frames is consistent.
func (s *CongruenceSolver) Check() Result {
	lits := s.allLiterals()
	uf := newUnionFind()

	var eqs [][2]*term.Term
	var diseqs [][2]*term.Term
	var orders []orderFact

	for _, l := range lits {
		if l.IsRaw() {
			if !l.Sign {
				// FalseLiteral asserted directly: immediately unsat.
				return Unsat
			}
			continue
		}
		s1, t1 := l.Atom.S, l.Atom.T
		if of, ok := asOrderFact(s1, t1, l.Sign); ok {
			orders = append(orders, of)
			continue
		}
		if l.Sign {
			diseqs = append(diseqs, [2]*term.Term{s1, t1})
		} else {
			eqs = append(eqs, [2]*term.Term{s1, t1})
		}
	}

	for _, e := range eqs {
		uf.union(e[0], e[1])
	}
	closeCongruence(uf, lits)

	for _, d := range diseqs {
		if uf.find(d[0]) == uf.find(d[1]) {
			return Unsat
		}
	}

	if !checkOrders(uf, orders) {
		return Unsat
	}

	return Sat
}

// orderFact is a ground order constraint rep1 `op` rep2, where op is one
// of ge/gt (asOrderFact rewrites an le/lt comparison into the ge/gt with
// its two sides swapped).
type orderFact struct {
	op       term.Op
	lhs, rhs *term.Term
}

// asOrderFact recognizes a literal built from a comparison atom (one side
// is a gt/ge/lt/le/eq/ne term, the other is the True sentinel) and
// extracts the underlying order fact, accounting for sign and the le/lt
// negated-ge/gt encoding used throughout this module (handle_assertions).
func asOrderFact(s, t *term.Term, sign bool) (orderFact, bool) {
	cmpTerm := s
	if !cmpTerm.IsCmp() {
		cmpTerm = t
	}
	if !cmpTerm.IsCmp() || cmpTerm.Arity() != 2 {
		return orderFact{}, false
	}
	op := cmpTerm.Op
	lhs, rhs := cmpTerm.Children[0], cmpTerm.Children[1]
	truth := t == term.True || s == term.True
	if !truth {
		return orderFact{}, false
	}
	if sign {
		cmpTerm = cmpTerm.Invert()
		op = cmpTerm.Op
	}
	switch op {
	case term.OpGe, term.OpGt:
		return orderFact{op: op, lhs: lhs, rhs: rhs}, true
	case term.OpLe:
		return orderFact{op: term.OpGe, lhs: rhs, rhs: lhs}, true
	case term.OpLt:
		return orderFact{op: term.OpGt, lhs: rhs, rhs: lhs}, true
	default:
		return orderFact{}, false
	}
}

// checkOrders runs a Floyd-Warshall-style transitive closure over the
// reachability graph induced by the asserted ge/gt facts (edges
// representative(lhs) -> representative(rhs), since "lhs >= rhs" puts
// lhs above rhs), failing if any node can reach itself via a
// path containing at least one strict edge, or if a ground constant pair
// is directly inconsistent.
func checkOrders(uf *unionFind, orders []orderFact) bool {
	if len(orders) == 0 {
		return true
	}
	nodes := map[*term.Term]bool{}
	for _, o := range orders {
		nodes[uf.find(o.lhs)] = true
		nodes[uf.find(o.rhs)] = true
	}
	idx := map[*term.Term]int{}
	list := make([]*term.Term, 0, len(nodes))
	for n := range nodes {
		idx[n] = len(list)
		list = append(list, n)
	}
	n := len(list)
	const inf = 1 << 30
	// reach[i][j] means "i >= j" is known, strict[i][j] means "i > j" is
	// known (strict dominates non-strict); neither set means no known relation.
	strict := make([][]bool, n)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		strict[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		reach[i][i] = true
	}
	for _, o := range orders {
		i, j := idx[uf.find(o.lhs)], idx[uf.find(o.rhs)]
		reach[i][j] = true
		if o.op == term.OpGt {
			strict[i][j] = true
		}
		if o.lhs.IsConst() && o.rhs.IsConst() {
			ok := o.lhs.Value > o.rhs.Value
			if o.op == term.OpGe {
				ok = o.lhs.Value >= o.rhs.Value
			}
			if !ok {
				return false
			}
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !reach[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if reach[k][j] {
					if reach[i][j] && (strict[i][j] || !(strict[i][k] || strict[k][j])) {
						continue
					}
					reach[i][j] = true
					if strict[i][k] || strict[k][j] {
						strict[i][j] = true
					}
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		if strict[i][i] {
			return false
		}
	}
	_ = inf
	return true
}
