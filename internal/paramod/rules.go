package paramod

import (
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/term"
)

// assignSet substitutes VAR with value in every literal of lits, dropping
// any that become FalseLiteral and signaling ok=false (abort the whole
// inference) if any becomes TrueLiteral — grounded on Paramodulator._assign.
func assignSet(value *term.Term, lits []*logic.Literal) ([]*logic.Literal, bool) {
	if value.IsVar() {
		return lits, true
	}
	out := make([]*logic.Literal, 0, len(lits))
	for _, l := range lits {
		al := l.Assign(value)
		if al == logic.TrueLiteral {
			return nil, false
		}
		if al == logic.FalseLiteral {
			continue
		}
		out = append(out, al)
	}
	return out, true
}

func assignTerm(value, t *term.Term) *term.Term {
	if value.IsVar() {
		return t
	}
	return t.Assign(value)
}

func union(a, b []*logic.Literal) []*logic.Literal {
	return append(append([]*logic.Literal(nil), a...), b...)
}

func (e *Engine) isTermGt(t1, t2 *term.Term) bool {
	if !t1.IsGround() || !t2.IsGround() {
		return true
	}
	return e.Cmp.CompareTerms(t1, t2) > 0
}

func (e *Engine) isLiteralGt(l1, l2 *logic.Literal) bool {
	if !l1.IsGround() || !l2.IsGround() {
		return true
	}
	return e.Cmp.CompareLiterals(l1, l2) > 0
}

func (e *Engine) isLiteralGte(l1, l2 *logic.Literal) bool {
	if !l1.IsGround() || !l2.IsGround() {
		return true
	}
	return e.Cmp.CompareLiterals(l1, l2) >= 0
}

// isTermGtSet reports whether t is ≻ every term mentioned by any literal
// in lits (vacuously true if t is non-ground).
func (e *Engine) isTermGtSet(t *term.Term, lits []*logic.Literal) bool {
	if !t.IsGround() {
		return true
	}
	for _, l := range lits {
		for _, t2 := range l.Terms() {
			if !t2.IsGround() {
				continue
			}
			if e.Cmp.CompareTerms(t, t2) <= 0 {
				return false
			}
		}
	}
	return true
}

func (e *Engine) isLiteralGtSet(l *logic.Literal, lits []*logic.Literal) bool {
	if !l.IsGround() {
		return true
	}
	for _, l2 := range lits {
		if !e.isLiteralGt(l, l2) {
			return false
		}
	}
	return true
}

func (e *Engine) isLiteralGteSet(l *logic.Literal, lits []*logic.Literal) bool {
	if !l.IsGround() {
		return true
	}
	for _, l2 := range lits {
		if !e.isLiteralGte(l, l2) {
			return false
		}
	}
	return true
}

func isBoolLit(l *logic.Literal) bool { return l == logic.TrueLiteral || l == logic.FalseLiteral }

// rightSuperposition rewrites clause1's side s (from s=t) using clause2's
// positive equation l=r: a non-VAR subterm of s unifying against l is
// replaced by r inside s, producing a new positive literal. Grounded on Paramodulator._apply_right_superposition.
func (e *Engine) rightSuperposition(b1, b2 brokenLit) {
	for _, subterm := range uniqueSubterms(b1.s) {
		if subterm.IsVar() {
			continue
		}
		v1, v2, ok := term.Unify(subterm, b2.s)
		if !ok {
			continue
		}
		g1, ok1 := assignSet(v1, b1.gamma)
		d1, ok1b := assignSet(v1, b1.delta)
		g2, ok2 := assignSet(v2, b2.gamma)
		d2, ok2b := assignSet(v2, b2.delta)
		if !ok1 || !ok1b || !ok2 || !ok2b {
			continue
		}
		s1, t1 := assignTerm(v1, b1.s), assignTerm(v1, b1.t)
		l2, r2 := assignTerm(v2, b2.s), assignTerm(v2, b2.t)

		lit1 := logic.GetLiteral(logic.GetAtom(s1, t1), false)
		lit2 := logic.GetLiteral(logic.GetAtom(l2, r2), false)
		if isBoolLit(lit1) || isBoolLit(lit2) {
			continue
		}

		if !e.isTermGt(l2, r2) || !e.isTermGt(s1, t1) ||
			!e.isTermGtSet(l2, g2) || !e.isTermGtSet(s1, g1) ||
			!e.isLiteralGtSet(lit2, d2) || !e.isLiteralGtSet(lit1, d1) {
			continue
		}

		newLit := logic.GetLiteral(logic.GetAtom(s1.Replace(subterm, r2), t1), false)
		e.addConseq(logic.GetClause(append(union(union(g1, g2), union(d1, d2)), newLit)...))
	}
}

// leftSuperposition rewrites clause2's positive equation into clause1's
// negative literal, producing a new negative literal. Grounded on
// Paramodulator._apply_left_superposition.
func (e *Engine) leftSuperposition(b1, b2 brokenLit) {
	for _, subterm := range uniqueSubterms(b1.s) {
		if subterm.IsVar() {
			continue
		}
		v1, v2, ok := term.Unify(subterm, b2.s)
		if !ok {
			continue
		}
		g1, ok1 := assignSet(v1, b1.gamma)
		d1, ok1b := assignSet(v1, b1.delta)
		g2, ok2 := assignSet(v2, b2.gamma)
		d2, ok2b := assignSet(v2, b2.delta)
		if !ok1 || !ok1b || !ok2 || !ok2b {
			continue
		}
		s1, t1 := assignTerm(v1, b1.s), assignTerm(v1, b1.t)
		l2, r2 := assignTerm(v2, b2.s), assignTerm(v2, b2.t)

		lit1 := logic.GetLiteral(logic.GetAtom(s1, t1), true)
		lit2 := logic.GetLiteral(logic.GetAtom(l2, r2), false)

		if !e.isTermGt(l2, r2) || !e.isTermGt(s1, t1) ||
			!e.isTermGtSet(l2, g2) ||
			!e.isLiteralGtSet(lit2, d2) ||
			!e.isLiteralGteSet(lit1, union(g1, d1)) {
			continue
		}

		newLit := logic.GetLiteral(logic.GetAtom(s1.Replace(subterm, r2), t1), true)
		e.addConseq(logic.GetClause(append(union(union(g1, g2), union(d1, d2)), newLit)...))
	}
}

// equalityResolution tries to refute a negative maximal literal s≠t by
// unifying s against t directly; success derives the rest of the clause
// as a consequence (no new literal — the refuted disequality simply
// vanishes). Grounded on Paramodulator._apply_equality_resolution.
func (e *Engine) equalityResolution(b brokenLit) {
	v1, v2, ok := term.Unify(b.s, b.t)
	if !ok {
		return
	}
	g, ok1 := assignSet(v1, b.gamma)
	d, ok1b := assignSet(v1, b.delta)
	if !ok1 || !ok1b {
		return
	}
	g, ok2 := assignSet(v2, g)
	d, ok2b := assignSet(v2, d)
	if !ok2 || !ok2b {
		return
	}
	s := assignTerm(v2, assignTerm(v1, b.s))
	t := assignTerm(v2, assignTerm(v1, b.t))

	lit := logic.GetLiteral(logic.GetAtom(s, t), false)
	if lit != logic.TrueLiteral && !e.isLiteralGteSet(lit, union(g, d)) {
		return
	}
	e.addConseq(logic.GetClause(union(g, d)...))
}

// equalityFactoring merges two positive literals sharing a common value
// (s1=t1 and s2=t2 with s1 unifying s2) into s1=t2 ∨ t1≠t2, eliminating
// the redundant duplicate. Grounded on
// Paramodulator._apply_equality_factoring.
func (e *Engine) equalityFactoring(b brokenLit, s2, t2 *term.Term, deltaRest []*logic.Literal) {
	v1, v2, ok := term.Unify(b.s, s2)
	if !ok {
		return
	}
	g, ok1 := assignSet(v1, b.gamma)
	d, ok1b := assignSet(v1, deltaRest)
	if !ok1 || !ok1b {
		return
	}
	s1 := assignTerm(v1, b.s)
	t1 := assignTerm(v1, b.t)
	s2a := assignTerm(v1, s2)
	t2a := assignTerm(v1, t2)

	g, ok2 := assignSet(v2, g)
	d, ok2b := assignSet(v2, d)
	if !ok2 || !ok2b {
		return
	}
	s1 = assignTerm(v2, s1)
	t1 = assignTerm(v2, t1)
	s2a = assignTerm(v2, s2a)
	t2a = assignTerm(v2, t2a)

	lit1 := logic.GetLiteral(logic.GetAtom(s1, t1), false)
	lit2 := logic.GetLiteral(logic.GetAtom(s2a, t2a), false)
	if lit1 == logic.TrueLiteral || lit2 == logic.TrueLiteral {
		return
	}

	if !e.isTermGt(s1, t1) || !e.isTermGtSet(s1, g) ||
		!e.isLiteralGteSet(lit1, append(append([]*logic.Literal(nil), d...), lit2)) {
		return
	}

	newPos := logic.GetLiteral(logic.GetAtom(s1, t2a), false)
	newNeg := logic.GetLiteral(logic.GetAtom(t1, t2a), true)
	e.addConseq(logic.GetClause(append(union(g, d), newPos, newNeg)...))
}

// uniqueSubterms returns the distinct subterms of t (including t itself),
// each appearing once regardless of repeated occurrence — the set
// term.py's subterm_locs keys iterate over.
func uniqueSubterms(t *term.Term) []*term.Term {
	seen := map[*term.Term]bool{}
	var out []*term.Term
	for _, s := range t.SubtermLocs() {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
