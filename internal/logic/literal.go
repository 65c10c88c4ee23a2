package logic

import (
	"fmt"
	"sync"

	"github.com/orozery/paramodai/internal/term"
)

// Literal is a signed Atom: Sign=false is the positive literal (atom
// holds, "s = t"), Sign=true is the negative literal ("s ≠ t"). A Literal
// with Atom == nil stands directly for one of the two boolean sentinels —
// grounded on literal.py's special-cased raw-bool collapse.
type Literal struct {
	Atom *Atom
	Sign bool
}

var (
	litMu    sync.Mutex
	litCache = map[litKey]*Literal{}
)

type litKey struct {
	atom *Atom
	sign bool
}

// GetLiteral returns the canonical, interned literal for the given atom and sign,
// applying literal.py's two special cases: an atom that's a raw boolean
// sentinel collapses to a sign-only literal with Atom == nil, and a
// negative literal over a comparison atom is rewritten to the positive
// literal of the logically inverted comparison (so "¬(s ≥ t)" is stored as
// the literal "s < t", never as a negated "≥").
func GetLiteral(a *Atom, sign bool) *Literal {
	if a.S.IsBool() && a.T.IsBool() {
		value := a.S == a.T
		return getRaw(value != sign)
	}
	if sign && a.IsCmp() {
		inv := invertAtom(a)
		return GetLiteral(inv, false)
	}
	key := litKey{a, sign}
	litMu.Lock()
	defer litMu.Unlock()
	if l, ok := litCache[key]; ok {
		return l
	}
	l := &Literal{Atom: a, Sign: sign}
	litCache[key] = l
	return l
}

func invertAtom(a *Atom) *Atom {
	s, t := a.S, a.T
	if s.IsCmp() {
		return GetAtom(s.Invert(), t)
	}
	return GetAtom(s, t.Invert())
}

var (
	rawMu    sync.Mutex
	rawCache = map[bool]*Literal{}
)

func getRaw(sign bool) *Literal {
	rawMu.Lock()
	defer rawMu.Unlock()
	if l, ok := rawCache[sign]; ok {
		return l
	}
	l := &Literal{Atom: nil, Sign: sign}
	rawCache[sign] = l
	return l
}

// TrueLiteral and FalseLiteral are the two boolean sentinel literals.
// Grounded (including the seemingly-inverted sign mapping) on literal.py:
// Literal.get(None, True) is defined as the constant TRUE literal.
var (
	TrueLiteral  = getRaw(true)
	FalseLiteral = getRaw(false)
)

func (l *Literal) String() string {
	if l.Atom == nil {
		if l.Sign {
			return "True"
		}
		return "False"
	}
	if l.Sign {
		return fmt.Sprintf("%s != %s", l.Atom.S, l.Atom.T)
	}
	return l.Atom.String()
}

// IsRaw reports whether l stands for a boolean sentinel rather than a
// signed equality atom.
func (l *Literal) IsRaw() bool { return l.Atom == nil }

// IsCmp reports whether the underlying atom is a comparison.
func (l *Literal) IsCmp() bool { return l.Atom != nil && l.Atom.IsCmp() }

// IsGround reports whether the literal mentions no occurrence of VAR.
func (l *Literal) IsGround() bool { return l.Atom == nil || l.Atom.IsGround() }

// Rank is the literal's underlying atom rank, 0 for a raw boolean.
func (l *Literal) Rank() int {
	if l.Atom == nil {
		return 0
	}
	return l.Atom.Rank()
}

// Terms returns the literal's underlying terms, empty for a raw boolean.
func (l *Literal) Terms() []*term.Term {
	if l.Atom == nil {
		return nil
	}
	return l.Atom.Terms()
}

// Names returns every atomic name occurring in the literal.
func (l *Literal) Names() map[string]bool {
	if l.Atom == nil {
		return map[string]bool{}
	}
	return l.Atom.Names()
}

// AtomicNames returns every non-VAR atomic name occurring in the literal.
func (l *Literal) AtomicNames() map[string]bool {
	names := l.Names()
	delete(names, term.VarName)
	return names
}

// Negate returns the logical negation of l.
func (l *Literal) Negate() *Literal {
	if l.Atom == nil {
		return getRaw(!l.Sign)
	}
	return GetLiteral(l.Atom, !l.Sign)
}

// Assign substitutes VAR with value in the underlying atom.
func (l *Literal) Assign(value *term.Term) *Literal {
	if l.Atom == nil {
		return l
	}
	return GetLiteral(l.Atom.Assign(value), l.Sign)
}

// Replace substitutes old with new in the underlying atom.
func (l *Literal) Replace(old, new *term.Term) *Literal {
	if l.Atom == nil {
		return l
	}
	return GetLiteral(l.Atom.Replace(old, new), l.Sign)
}

// Rename applies f to every non-VAR atomic name in the underlying atom.
func (l *Literal) Rename(f func(string) string) *Literal {
	if l.Atom == nil {
		return l
	}
	return GetLiteral(l.Atom.Rename(f), l.Sign)
}
