package term_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/term"
)

// TestUnifyNestedVarInsideCompound exercises the recursive case Unify must
// handle: a VAR occurring as a child of a compound term (e.g. a marker
// wrapping the shared paramodulation variable, as state.Kill's deref
// elimination schema clause produces) against a structurally matching
// ground compound. Grounded on term.py:188-219.
func TestUnifyNestedVarInsideCompound(t *testing.T) {
	marker := term.Op("d_tmp")
	a := term.Compound(marker, term.Var())
	b := term.Compound(marker, term.Const(5))

	valA, valB, ok := term.Unify(a, b)
	require.True(t, ok)
	require.True(t, valA.IsConst())
	require.Equal(t, int64(5), valA.Value)
	require.True(t, valB.IsVar())
}

// TestUnifyNestedVarBothSides unifies a VAR nested in each side's compound
// structure against the other, binding each side's VAR to the other side's
// sibling subterm.
func TestUnifyNestedVarBothSides(t *testing.T) {
	a := term.Compound(term.Op("d_tmp"), term.Var(), term.Atomic("ECX"))
	b := term.Compound(term.Op("d_tmp"), term.Atomic("EAX"), term.Var())

	valA, valB, ok := term.Unify(a, b)
	require.True(t, ok)
	require.Equal(t, term.Atomic("EAX"), valA)
	require.Equal(t, term.Atomic("ECX"), valB)
}

// TestUnifyNestedVarDisagreeingOccurrencesFails rejects unification when the
// same side's VAR would need two different bindings to match, mirroring
// term.py's unify failing when sub_res entries disagree.
func TestUnifyNestedVarDisagreeingOccurrencesFails(t *testing.T) {
	a := term.Add(term.Var(), term.Var())
	b := term.Compound(term.OpAdd, term.Const(1), term.Const(2))

	_, _, ok := term.Unify(a, b)
	require.False(t, ok)
}

// TestUnifyMismatchedHeadsFails rejects unification of compounds with
// different operators or arities, even when one nests a VAR.
func TestUnifyMismatchedHeadsFails(t *testing.T) {
	a := term.Deref(term.Var())
	b := term.Compound(term.Op("d_tmp"), term.Atomic("ECX"))

	_, _, ok := term.Unify(a, b)
	require.False(t, ok)
}

// TestUnifyRejectsVarBoundToBoolOrComparison mirrors term.py's unify
// refusing to bind VAR to a boolean sentinel or a comparison-headed term.
func TestUnifyRejectsVarBoundToBoolOrComparison(t *testing.T) {
	_, _, ok := term.Unify(term.Var(), term.True)
	require.False(t, ok)

	cmp := term.Cmp(term.OpGt, term.Atomic("EAX"), term.Const(0))
	_, _, ok = term.Unify(term.Var(), cmp)
	require.False(t, ok)
}

// TestRenameRoundTrip exercises the spec's rename round-trip property:
// renaming x to a fresh name y and back to x recovers the original term,
// provided y did not already occur in it.
func TestRenameRoundTrip(t *testing.T) {
	original := term.Add(term.Atomic("EAX"), term.Deref(term.Atomic("ECX")))

	swapXY := func(name string) string {
		switch name {
		case "EAX":
			return "freshY"
		default:
			return name
		}
	}
	swapYX := func(name string) string {
		switch name {
		case "freshY":
			return "EAX"
		default:
			return name
		}
	}

	renamed := original.Rename(swapXY)
	back := renamed.Rename(swapYX)
	require.Equal(t, original, back)
}

// TestInterningIdempotence checks that two terms built from equal arguments
// are the same *Term value (structural equality is pointer equality).
func TestInterningIdempotence(t *testing.T) {
	require.True(t, term.Const(42) == term.Const(42))
	require.True(t, term.Atomic("EAX") == term.Atomic("EAX"))
	require.True(t, term.Deref(term.Atomic("ECX")) == term.Deref(term.Atomic("ECX")))
}

// TestSubtermProperty checks that every term returned by SubtermLocs is
// reported present by Contains, including the term itself.
func TestSubtermProperty(t *testing.T) {
	tm := term.Add(term.Atomic("EAX"), term.Deref(term.Atomic("ECX")))
	for _, sub := range tm.SubtermLocs() {
		require.True(t, tm.Contains(sub), "expected %s to contain subterm %s", tm, sub)
	}
}
