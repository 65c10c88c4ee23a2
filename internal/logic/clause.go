package logic

import (
	"sort"
	"strings"
	"sync"

	"github.com/orozery/paramodai/internal/term"
)

// Clause is a disjunction of literals, interned by its literal set. A
// Clause never contains FalseLiteral (dropped at construction) and
// collapses to the single-literal TrueLiteral clause if it contains
// TrueLiteral or a complementary pair l/¬l — grounded on clause.py's
// Clause.get + simplify.
type Clause struct {
	Literals []*Literal // sorted by pointer-stable String() for determinism
}

var (
	clauseMu    sync.Mutex
	clauseCache = map[string]*Clause{}
)

func clauseKey(lits []*Literal) string {
	var b strings.Builder
	for _, l := range lits {
		b.WriteString(l.String())
		b.WriteByte(';')
	}
	return b.String()
}

// GetClause returns the canonical, interned clause that is the disjunction of
// lits, after dropping FalseLiteral and collapsing tautologies to True.
func GetClause(lits ...*Literal) *Clause {
	seen := map[*Literal]bool{}
	var kept []*Literal
	for _, l := range lits {
		if l == FalseLiteral {
			continue
		}
		if l == TrueLiteral {
			return trueClause()
		}
		if seen[l.Negate()] {
			return trueClause()
		}
		if !seen[l] {
			seen[l] = true
			kept = append(kept, l)
		}
	}
	// An empty disjunction (every literal supplied was FalseLiteral, or
	// none at all) is the empty clause: a contradiction, not a tautology —
	// grounded on clause.py's simplify, which returns Python False (not
	// True) in this case.
	sort.Slice(kept, func(i, j int) bool { return kept[i].String() < kept[j].String() })
	key := clauseKey(kept)
	clauseMu.Lock()
	defer clauseMu.Unlock()
	if c, ok := clauseCache[key]; ok {
		return c
	}
	c := &Clause{Literals: kept}
	clauseCache[key] = c
	return c
}

var trueClauseOnce *Clause

func trueClause() *Clause {
	if trueClauseOnce == nil {
		trueClauseOnce = &Clause{Literals: []*Literal{TrueLiteral}}
	}
	return trueClauseOnce
}

// IsTrue reports whether c is the trivially-true clause (no constraint).
func (c *Clause) IsTrue() bool { return len(c.Literals) == 1 && c.Literals[0] == TrueLiteral }

func (c *Clause) String() string {
	if c.IsTrue() {
		return "True"
	}
	parts := make([]string, len(c.Literals))
	for i, l := range c.Literals {
		parts[i] = l.String()
	}
	return strings.Join(parts, " | ")
}

// Or returns the disjunction of c and d.
func (c *Clause) Or(d *Clause) *Clause {
	if c.IsTrue() || d.IsTrue() {
		return trueClause()
	}
	all := append(append([]*Literal(nil), c.Literals...), d.Literals...)
	return GetClause(all...)
}

// AddLiterals returns c extended with extra, as a disjunction.
func (c *Clause) AddLiterals(extra ...*Literal) *Clause {
	all := append(append([]*Literal(nil), c.Literals...), extra...)
	return GetClause(all...)
}

// RemoveLiteral returns c with l removed, if present.
func (c *Clause) RemoveLiteral(l *Literal) *Clause {
	var kept []*Literal
	for _, x := range c.Literals {
		if x != l {
			kept = append(kept, x)
		}
	}
	return GetClause(kept...)
}

// IterSubclauses calls f once per literal with the clause formed by every
// other literal — the per-literal "rest of the clause" view the
// paramodulation rules need to find a maximal literal to rewrite on.
func (c *Clause) IterSubclauses(f func(selected *Literal, rest *Clause)) {
	for i, l := range c.Literals {
		rest := append(append([]*Literal(nil), c.Literals[:i]...), c.Literals[i+1:]...)
		f(l, GetClause(rest...))
	}
}

// PosLits returns the clause's positive literals.
func (c *Clause) PosLits() []*Literal {
	var out []*Literal
	for _, l := range c.Literals {
		if !l.Sign {
			out = append(out, l)
		}
	}
	return out
}

// NegLits returns the clause's negative literals.
func (c *Clause) NegLits() []*Literal {
	var out []*Literal
	for _, l := range c.Literals {
		if l.Sign {
			out = append(out, l)
		}
	}
	return out
}

// IsGround reports whether every literal in c mentions no VAR.
func (c *Clause) IsGround() bool {
	for _, l := range c.Literals {
		if !l.IsGround() {
			return false
		}
	}
	return true
}

// IsEmpty reports whether c has no literals at all — the contradiction
// signal the consequence finder watches for (the derivation of the empty
// clause means the state is infeasible).
func (c *Clause) IsEmpty() bool { return len(c.Literals) == 0 }

// Rank is the sum of its literals' ranks.
func (c *Clause) Rank() int {
	n := 0
	for _, l := range c.Literals {
		n += l.Rank()
	}
	return n
}

// Names returns the union of every literal's atomic names.
func (c *Clause) Names() map[string]bool {
	out := map[string]bool{}
	for _, l := range c.Literals {
		for n := range l.Names() {
			out[n] = true
		}
	}
	return out
}

// Rename applies f to every non-VAR atomic name in every literal.
func (c *Clause) Rename(f func(string) string) *Clause {
	lits := make([]*Literal, len(c.Literals))
	for i, l := range c.Literals {
		lits[i] = l.Rename(f)
	}
	return GetClause(lits...)
}

// Assign substitutes VAR with value throughout every literal.
func (c *Clause) Assign(value *term.Term) *Clause {
	lits := make([]*Literal, len(c.Literals))
	for i, l := range c.Literals {
		lits[i] = l.Assign(value)
	}
	return GetClause(lits...)
}

// Subsumes reports whether c subsumes d: every literal of c also appears
// in d, meaning d's constraint is implied by (weaker than or equal to) c's.
// Grounded on clause.py's subsumes (syntactic-subset check; this module's
// SMT-backed redundancy elimination layers semantic subsumption on top in
// internal/consequence).
func (c *Clause) Subsumes(d *Clause) bool {
	set := map[*Literal]bool{}
	for _, l := range d.Literals {
		set[l] = true
	}
	for _, l := range c.Literals {
		if !set[l] {
			return false
		}
	}
	return true
}
