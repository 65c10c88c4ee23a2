// Package paramod implements the two paramodulation calculi the
// consequence finder drives: an ordered calculus (right/left superposition,
// equality resolution, equality factoring, each gated by a simplification-
// order maximality side-condition) used for single-symbol elimination, and
// an unordered calculus (pure syntactic rewriting, no side-conditions) used
// for plain saturation. Grounded line-for-line on
// original_source/paramodai/paramodulator.py and unordered_para.py.
package paramod

import (
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/order"
	"github.com/orozery/paramodai/internal/term"
)

// Engine drives one calculus (ordered or unordered, selected by NewOrdered
// vs NewUnordered) against a growing clause set, emitting every derived
// clause that survives the ground/size/rank admission filters via Emit.
// Engine itself holds no clause-set state: the caller (internal/consequence)
// owns the worklist and calls Apply once per clause pair it wants explored.
type Engine struct {
	Cmp           *order.Comparator
	Ordered       bool
	MaxClauseSize int
	MaxClauseRank int
	Emit          func(*logic.Clause)

	brokenCache map[*logic.Clause][]brokenLit
}

// NewOrdered returns an engine running the ordered (superposition)
// calculus, parameterized by a comparator built with an elimination
// target.
func NewOrdered(cmp *order.Comparator, maxSize, maxRank int, emit func(*logic.Clause)) *Engine {
	return &Engine{Cmp: cmp, Ordered: true, MaxClauseSize: maxSize, MaxClauseRank: maxRank, Emit: emit, brokenCache: map[*logic.Clause][]brokenLit{}}
}

// NewUnordered returns an engine running the unordered (plain syntactic
// rewriting) calculus used for saturation without an elimination target.
func NewUnordered(cmp *order.Comparator, maxSize, maxRank int, emit func(*logic.Clause)) *Engine {
	return &Engine{Cmp: cmp, Ordered: false, MaxClauseSize: maxSize, MaxClauseRank: maxRank, Emit: emit, brokenCache: map[*logic.Clause][]brokenLit{}}
}

func (e *Engine) addConseq(c *logic.Clause) {
	if c.IsTrue() {
		return
	}
	if !c.IsGround() {
		return
	}
	if len(c.Literals) > e.MaxClauseSize {
		return
	}
	if c.Rank() > e.MaxClauseRank {
		return
	}
	e.Emit(c)
}

// Apply runs every applicable inference between c1 and the rest of the
// active clause set (others; c1 itself is skipped there, so a clause is
// never paired with itself), plus c1's unary rules (equality resolution / equality
// factoring), matching apply_rules(c) from the Python original exactly:
// for the ordered calculus, c2 only participates if either c1 or c2
// mentions elimTarget (so work stays focused on eliminating that symbol).
func (e *Engine) Apply(c1 *logic.Clause, others []*logic.Clause, elimTarget string) {
	c1ContainsTarget := elimTarget != "" && c1.Names()[elimTarget]
	for _, b1 := range e.breakMaxLit(c1) {
		for _, c2 := range others {
			if c1 == c2 {
				continue
			}
			if elimTarget != "" && !c1ContainsTarget && !c2.Names()[elimTarget] {
				continue
			}
			for _, b2 := range e.breakMaxLit(c2) {
				switch {
				case !b1.sign && !b2.sign:
					e.rightSuperposition(b1, b2)
					e.rightSuperposition(b2, b1)
				case !b1.sign && b2.sign:
					e.leftSuperposition(b2, b1)
				case b1.sign && !b2.sign:
					e.leftSuperposition(b1, b2)
				}
			}
		}
		if b1.sign {
			e.equalityResolution(b1)
		} else {
			for _, l := range b1.delta {
				terms := l.Terms()
				if len(terms) != 2 {
					continue
				}
				e.equalityFactoring(b1, terms[0], terms[1], removeLit(b1.delta, l))
				e.equalityFactoring(b1, terms[1], terms[0], removeLit(b1.delta, l))
			}
		}
	}
}

// brokenLit is one way of viewing a clause as "selected literal s <op> t,
// plus the rest split into negative (gamma) and positive (delta)
// literals" — the Paramodulator's break_max_lit tuple.
type brokenLit struct {
	sign       bool
	s, t       *term.Term
	gamma      []*logic.Literal
	delta      []*logic.Literal
}

func removeLit(s []*logic.Literal, l *logic.Literal) []*logic.Literal {
	out := make([]*logic.Literal, 0, len(s))
	for _, x := range s {
		if x != l {
			out = append(out, x)
		}
	}
	return out
}

func litsMinus(all []*logic.Literal, l *logic.Literal) []*logic.Literal {
	return removeLit(all, l)
}

func split(lits []*logic.Literal) (gamma, delta []*logic.Literal) {
	for _, l := range lits {
		if l.Sign {
			gamma = append(gamma, l)
		} else {
			delta = append(delta, l)
		}
	}
	return
}

// breakMaxLit implements Paramodulator.break_max_lit / _break_max_lit: for
// the unordered calculus every literal is broken unconditionally, with no
// maximality side-condition (unordered_para.py's _break_max_lit); for the
// ordered calculus, non-ground literals are broken unconditionally (their
// side-conditions are vacuously true, since the comparator only applies to
// ground terms), while the single >-maximal ground literal is only broken
// if it is negative, or its larger side is ≻ every term mentioned by the
// clause's other negative ground literals (see DESIGN.md decision (e) for
// why "negative", not "positive").
func (e *Engine) breakMaxLit(c *logic.Clause) []brokenLit {
	if v, ok := e.brokenCache[c]; ok {
		return v
	}
	v := e.computeBreakMaxLit(c)
	e.brokenCache[c] = v
	return v
}

func (e *Engine) computeBreakMaxLit(c *logic.Clause) []brokenLit {
	var ground, nonGround []*logic.Literal
	for _, l := range c.Literals {
		if l.IsGround() {
			ground = append(ground, l)
		} else {
			nonGround = append(nonGround, l)
		}
	}

	type raw struct {
		sign  bool
		s, t  *term.Term
		other []*logic.Literal
	}
	var temp []raw

	for _, l := range nonGround {
		terms := l.Terms()
		if len(terms) != 2 {
			continue
		}
		rest := litsMinus(c.Literals, l)
		// Both the ordered and unordered calculus break a non-ground
		// literal in both orientations unconditionally — paramodulator.py's
		// ordered _break_max_lit does this too (`for s, t in
		// permutations(l.terms)`), it is not gated on ordered/unordered.
		// Only the >-maximal *ground* literal below is orientation-
		// restricted, since the comparator (and its side-conditions) only
		// apply to ground terms.
		temp = append(temp, raw{l.Sign, terms[0], terms[1], rest})
		temp = append(temp, raw{l.Sign, terms[1], terms[0], rest})
	}

	if len(ground) > 0 {
		if e.Ordered {
			l := e.Cmp.GetMaxLiteral(ground)
			terms := l.Terms()
			if len(terms) == 2 {
				s, t := terms[0], terms[1]
				if e.Cmp.CompareTerms(s, t) < 0 {
					s, t = t, s
				}
				var negGround []*logic.Literal
				for _, l2 := range ground {
					if l2.Sign {
						negGround = append(negGround, l2)
					}
				}
				if l.Sign || e.isTermGtSet(s, negGround) {
					temp = append(temp, raw{l.Sign, s, t, litsMinus(c.Literals, l)})
				}
			}
		} else {
			// Unordered calculus: every ground literal is broken in both
			// orientations unconditionally, matching unordered_para.py.
			for _, l := range ground {
				terms := l.Terms()
				if len(terms) != 2 {
					continue
				}
				rest := litsMinus(c.Literals, l)
				temp = append(temp, raw{l.Sign, terms[0], terms[1], rest})
				temp = append(temp, raw{l.Sign, terms[1], terms[0], rest})
			}
		}
	}

	out := make([]brokenLit, 0, len(temp))
	for _, r := range temp {
		gamma, delta := split(r.other)
		out = append(out, brokenLit{sign: r.sign, s: r.s, t: r.t, gamma: gamma, delta: delta})
	}
	return out
}
