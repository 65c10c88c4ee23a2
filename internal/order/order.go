// Package order implements the KBO-style simplification ordering used by
// the consequence finder's inference rules to decide which side of an
// equality is "heavier" (and so may be eliminated in favor of the other).
// The ordering is parameterized by an optional elimination target: a
// symbol appended to the base precedence as the heaviest entry, so that
// whenever it appears it is always the side rewritten away. Grounded on
// conseq_find.py's compare_terms/compare_literals/compare_clauses and
// their _compare_mul/_compare_lex/_compare_names helpers.
package order

import (
	"strconv"

	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/term"
)

// baseNames is term.BaseOrder rendered as plain strings, since the
// original's precedence list mixes function symbols and atomic names in
// one flat sequence.
var baseNames = func() []string {
	out := make([]string, len(term.BaseOrder))
	for i, op := range term.BaseOrder {
		out[i] = string(op)
	}
	return out
}()

// Comparator computes the >/</= relation ("strictly more complex" being
// "greater") over terms, literals, and clauses, optionally favoring a
// single elimination-target symbol as the heaviest in the precedence.
type Comparator struct {
	namesOrder []string

	termCache map[termPair]int
}

type termPair struct{ a, b *term.Term }

// New returns a comparator with no elimination target — plain saturation
// ordering.
func New() *Comparator { return NewWithTarget("") }

// NewWithTarget returns a comparator where target (a register name or a
// renamed function symbol, e.g. "d_tmp") is appended to the base
// precedence as the single heaviest symbol, so equalities mentioning it
// are always rewritten toward eliminating it.
func NewWithTarget(target string) *Comparator {
	order := append([]string(nil), baseNames...)
	if target != "" {
		order = append(order, target)
	}
	return &Comparator{namesOrder: order, termCache: map[termPair]int{}}
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

// headName returns the symbol compared by the precedence: the function
// symbol for a compound term, the register/variable name for an atomic
// term, and the decimal string of the value for a constant.
func headName(t *term.Term) string {
	switch t.Kind {
	case term.KindCompound:
		return string(t.Op)
	case term.KindAtomic:
		return t.Name
	default:
		return strconv.FormatInt(t.Value, 10)
	}
}

// isBoolHead reports whether t is one of the two boolean sentinels, which
// the original gives a name of "tuple" type to rank beneath every real
// symbol regardless of precedence-list membership.
func isBoolHead(t *term.Term) bool { return t == term.True || t == term.False }

// compareNames implements _compare_names: boolean sentinels sort lowest,
// then by position in namesOrder (absent = -1, sorts below any present
// entry), then lexicographically by name as a final tiebreak.
func (c *Comparator) compareNames(t1, t2 *term.Term) int {
	b1, b2 := isBoolHead(t1), isBoolHead(t2)
	if b1 != b2 {
		if b1 {
			return -1
		}
		return 1
	}
	n1, n2 := headName(t1), headName(t2)
	i1, i2 := indexOf(c.namesOrder, n1), indexOf(c.namesOrder, n2)
	if i1 != i2 {
		if i1 < i2 {
			return -1
		}
		return 1
	}
	switch {
	case n1 < n2:
		return -1
	case n1 > n2:
		return 1
	default:
		return 0
	}
}

func subTerms(t *term.Term) []*term.Term {
	if t.Kind != term.KindCompound {
		return nil
	}
	var out []*term.Term
	for _, c := range t.Children {
		out = append(out, c)
		out = append(out, subTerms(c)...)
	}
	return out
}

func isMultisetOp(t *term.Term) bool {
	return t.Kind == term.KindCompound && (t.Op == term.OpAdd || t.Op == term.OpMul)
}

// CompareTerms returns negative/zero/positive as t1 is smaller/equal/larger
// than t2 in the simplification order. Grounded on _compare_terms: the
// subterm property is enforced first (a term properly containing, or
// tied with, the other side at any depth is the larger one), then the
// head symbols are compared by precedence, then same-headed compounds
// compare their children — as a multiset for add/mul, lexicographically
// otherwise.
func (c *Comparator) CompareTerms(t1, t2 *term.Term) int {
	if t1 == t2 {
		return 0
	}
	key := termPair{t1, t2}
	if v, ok := c.termCache[key]; ok {
		return v
	}
	v := c.compareTermsUncached(t1, t2)
	c.termCache[key] = v
	c.termCache[termPair{t2, t1}] = -v
	return v
}

func (c *Comparator) compareTermsUncached(t1, t2 *term.Term) int {
	for _, s := range subTerms(t1) {
		if c.CompareTerms(s, t2) >= 0 {
			return 1
		}
	}
	for _, s := range subTerms(t2) {
		if c.CompareTerms(s, t1) >= 0 {
			return -1
		}
	}
	if nc := c.compareNames(t1, t2); nc != 0 {
		return nc
	}
	if t1.Kind != term.KindCompound || t2.Kind != term.KindCompound {
		return 0
	}
	if isMultisetOp(t1) {
		return c.compareMulTerms(t1.Children, t2.Children)
	}
	return c.compareLexTerms(t1.Children, t2.Children)
}

// compareMulTerms implements _compare_mul over term multisets: cancel the
// common elements, and if only one side has leftovers it wins outright;
// otherwise compare the two sides' maximal leftover elements.
func (c *Comparator) compareMulTerms(s1, s2 []*term.Term) int {
	left, right := multisetDiff(s1, s2, func(a, b *term.Term) bool { return a == b })
	if len(left) == 0 && len(right) == 0 {
		return 0
	}
	if len(left) == 0 {
		return -1
	}
	if len(right) == 0 {
		return 1
	}
	return c.CompareTerms(maxTerm(left, c.CompareTerms), maxTerm(right, c.CompareTerms))
}

func (c *Comparator) compareLexTerms(s1, s2 []*term.Term) int {
	n := len(s1)
	if len(s2) < n {
		n = len(s2)
	}
	for i := 0; i < n; i++ {
		if r := c.CompareTerms(s1[i], s2[i]); r != 0 {
			return r
		}
	}
	return intCmp(len(s1), len(s2))
}

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func maxTerm(s []*term.Term, cmp func(a, b *term.Term) int) *term.Term {
	best := s[0]
	for _, t := range s[1:] {
		if cmp(t, best) > 0 {
			best = t
		}
	}
	return best
}

// multisetDiff removes the elements common to both s1 and s2 (as a
// multiset intersection) and returns each side's remainder.
func multisetDiff(s1, s2 []*term.Term, eq func(a, b *term.Term) bool) ([]*term.Term, []*term.Term) {
	used2 := make([]bool, len(s2))
	var left []*term.Term
	for _, a := range s1 {
		matched := false
		for j, b := range s2 {
			if !used2[j] && eq(a, b) {
				used2[j] = true
				matched = true
				break
			}
		}
		if !matched {
			left = append(left, a)
		}
	}
	var right []*term.Term
	for j, b := range s2 {
		if !used2[j] {
			right = append(right, b)
		}
	}
	return left, right
}

// literalSides returns l's two terms oriented so that the larger side
// comes first, matching _compare_literals' per-literal reorientation.
func (c *Comparator) literalSides(l *logic.Literal) (big, small *term.Term) {
	terms := l.Terms()
	if len(terms) != 2 {
		return nil, nil
	}
	if c.CompareTerms(terms[0], terms[1]) < 0 {
		return terms[1], terms[0]
	}
	return terms[0], terms[1]
}

// CompareLiterals returns negative/zero/positive as l1 is smaller/equal/
// larger than l2. Grounded on _compare_literals: compare each literal's
// larger side first, then break ties by sign (negative > positive), then
// by the smaller side.
func (c *Comparator) CompareLiterals(l1, l2 *logic.Literal) int {
	if l1 == l2 {
		return 0
	}
	big1, small1 := c.literalSides(l1)
	big2, small2 := c.literalSides(l2)
	if big1 == nil || big2 == nil {
		// raw boolean literal: treat as the lightest possible term pair.
		if big1 == nil && big2 == nil {
			return 0
		}
		if big1 == nil {
			return -1
		}
		return 1
	}
	if r := c.CompareTerms(big1, big2); r != 0 {
		return r
	}
	if l1.Sign != l2.Sign {
		if l1.Sign {
			return 1
		}
		return -1
	}
	return c.CompareTerms(small1, small2)
}

// GetMaxLiteral returns the >-maximal literal among lits.
func (c *Comparator) GetMaxLiteral(lits []*logic.Literal) *logic.Literal {
	best := lits[0]
	for _, l := range lits[1:] {
		if c.CompareLiterals(l, best) > 0 {
			best = l
		}
	}
	return best
}

// CompareClauses returns negative/zero/positive as c1 is smaller/equal/
// larger than c2, treating each clause's literal set as a multiset under
// CompareLiterals. The trivially-true clause is the smallest possible.
func (c *Comparator) CompareClauses(c1, c2 *logic.Clause) int {
	if c1 == c2 {
		return 0
	}
	if c1.IsTrue() {
		return -1
	}
	if c2.IsTrue() {
		return 1
	}
	left, right := multisetLitDiff(c1.Literals, c2.Literals)
	if len(left) == 0 && len(right) == 0 {
		return 0
	}
	if len(left) == 0 {
		return -1
	}
	if len(right) == 0 {
		return 1
	}
	return c.CompareLiterals(maxLiteral(left, c.CompareLiterals), maxLiteral(right, c.CompareLiterals))
}

func multisetLitDiff(s1, s2 []*logic.Literal) ([]*logic.Literal, []*logic.Literal) {
	used2 := make([]bool, len(s2))
	var left []*logic.Literal
	for _, a := range s1 {
		matched := false
		for j, b := range s2 {
			if !used2[j] && a == b {
				used2[j] = true
				matched = true
				break
			}
		}
		if !matched {
			left = append(left, a)
		}
	}
	var right []*logic.Literal
	for j, b := range s2 {
		if !used2[j] {
			right = append(right, b)
		}
	}
	return left, right
}

func maxLiteral(s []*logic.Literal, cmp func(a, b *logic.Literal) int) *logic.Literal {
	best := s[0]
	for _, l := range s[1:] {
		if cmp(l, best) > 0 {
			best = l
		}
	}
	return best
}
