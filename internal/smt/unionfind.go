package smt

import (
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/term"
)

// unionFind merges terms into equivalence classes for the congruence
// closure. Representatives are chosen deterministically (lexicographically
// smallest String()) so repeated Check calls are stable.
type unionFind struct {
	parent map[*term.Term]*term.Term
}

func newUnionFind() *unionFind { return &unionFind{parent: map[*term.Term]*term.Term{}} }

func (u *unionFind) find(t *term.Term) *term.Term {
	p, ok := u.parent[t]
	if !ok {
		u.parent[t] = t
		return t
	}
	if p == t {
		return t
	}
	root := u.find(p)
	u.parent[t] = root
	return root
}

func (u *unionFind) union(a, b *term.Term) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra.String() <= rb.String() {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// closeCongruence repeatedly merges compound terms whose heads agree and
// whose corresponding arguments are already in the same class, until a
// fixpoint is reached: the standard congruence closure step (f(a)=f(b)
// whenever a=b), restricted to the ground subterms actually mentioned by
// the asserted literals.
func closeCongruence(uf *unionFind, lits []*logic.Literal) {
	seen := map[*term.Term]bool{}
	var all []*term.Term
	for _, l := range lits {
		for _, t := range l.Terms() {
			collect(t, seen, &all)
		}
	}
	for {
		changed := false
		for i := 0; i < len(all); i++ {
			for j := i + 1; j < len(all); j++ {
				a, b := all[i], all[j]
				if uf.find(a) == uf.find(b) {
					continue
				}
				if congruent(uf, a, b) {
					uf.union(a, b)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

func collect(t *term.Term, seen map[*term.Term]bool, all *[]*term.Term) {
	if seen[t] {
		return
	}
	seen[t] = true
	*all = append(*all, t)
	if t.Kind == term.KindCompound {
		for _, c := range t.Children {
			collect(c, seen, all)
		}
	}
}

func congruent(uf *unionFind, a, b *term.Term) bool {
	if a.Kind != term.KindCompound || b.Kind != term.KindCompound {
		return false
	}
	if a.Op != b.Op || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if uf.find(a.Children[i]) != uf.find(b.Children[i]) {
			return false
		}
	}
	return true
}
