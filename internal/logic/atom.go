// Package logic implements the equational atoms, literals and clauses the
// consequence finder (internal/consequence) reasons over: each Atom is an
// unordered equality s = t between two terms, each Literal signs an Atom
// (or stands for one of the two boolean sentinels), and a Clause is a
// disjunction of Literals. Grounded on the original's atom.py, literal.py
// and clause.py.
package logic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orozery/paramodai/internal/term"
)

// Atom is the canonical, oriented pair of terms behind an equality literal.
// GetAtom canonically orders the two sides (lower term.String() first)
// unless True is one of the sides, in which case True is kept on the
// right — grounded on atom.py's Atom.get.
type Atom struct {
	S, T *term.Term
}

var (
	atomMu    sync.Mutex
	atomCache = map[[2]*term.Term]*Atom{}
)

// GetAtom returns the canonically-oriented, interned atom s = t.
func GetAtom(s, t *term.Term) *Atom {
	if s == term.True && t != term.True {
		s, t = t, s
	} else if s != term.True && t != term.True && s.String() > t.String() {
		s, t = t, s
	}
	key := [2]*term.Term{s, t}
	atomMu.Lock()
	defer atomMu.Unlock()
	if a, ok := atomCache[key]; ok {
		return a
	}
	a := &Atom{S: s, T: t}
	atomCache[key] = a
	return a
}

func (a *Atom) String() string { return fmt.Sprintf("%s = %s", a.S, a.T) }

// IsGround reports whether neither side of the atom mentions VAR.
func (a *Atom) IsGround() bool { return a.S.IsGround() && a.T.IsGround() }

// IsCmp reports whether either side of the atom is a comparison term — the
// atom is then really standing for a boolean-valued relation rather than a
// plain equality between two values.
func (a *Atom) IsCmp() bool { return a.S.IsCmp() || a.T.IsCmp() }

// Rank is the combined structural size of both sides.
func (a *Atom) Rank() int { return a.S.Rank() + a.T.Rank() }

// Terms returns the atom's two sides.
func (a *Atom) Terms() []*term.Term { return []*term.Term{a.S, a.T} }

// Names returns every atomic name (including VAR) occurring in the atom.
func (a *Atom) Names() map[string]bool {
	out := a.S.Names()
	for k := range a.T.Names() {
		out[k] = true
	}
	return out
}

// Assign substitutes VAR with value on both sides.
func (a *Atom) Assign(value *term.Term) *Atom {
	return GetAtom(a.S.Assign(value), a.T.Assign(value))
}

// Replace substitutes old with new on both sides.
func (a *Atom) Replace(old, new *term.Term) *Atom {
	return GetAtom(a.S.Replace(old, new), a.T.Replace(old, new))
}

// Rename applies f to every atomic name (other than VAR) on both sides.
func (a *Atom) Rename(f func(string) string) *Atom {
	return GetAtom(a.S.Rename(f), a.T.Rename(f))
}

// Simplify evaluates the atom to a plain Go bool when its truth is
// syntactically decidable (both sides identical), returning (value, true).
// Otherwise it returns (false, false) meaning "stays symbolic". Grounded
// on atom.py's simplify, minus the z3-backed constant folding, which has
// no counterpart anywhere in this module.
func (a *Atom) Simplify() (bool, bool) {
	if a.S == a.T {
		return true, true
	}
	return false, false
}

func sortedNames(names map[string]bool) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
