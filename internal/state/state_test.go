package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logic"
	"github.com/orozery/paramodai/internal/smt"
	"github.com/orozery/paramodai/internal/term"
)

// TestKillDerefStoreProvesNewValue performs a real memory store through
// Kill's deref path (AddEq a prior pointee fact, then HandleAssignment a
// new value into the same deref) and checks the two postconditions that
// hold regardless of what the marker-elimination saturation derives along
// the way: the freshly asserted value is provable, and no surviving clause
// still mentions the internal d_tmp marker. Grounded on state.py's kill.
func TestKillDerefStoreProvesNewValue(t *testing.T) {
	s := New(config.DefaultConfig(), nil)
	addr := term.Atomic("ECX")

	s.AddEq(term.Deref(addr), term.Const(7), false)
	s.HandleAssignment(term.Deref(addr), term.Const(99))

	for c := range s.Clauses {
		require.False(t, c.Names()[dTmpMarker], "clause %s still mentions the kill marker", c)
	}

	proof := s.Copy()
	proof.AddEq(term.Deref(addr), term.Const(99), true)
	require.Equal(t, smt.Unsat, proof.checkSolver(), "expected deref(ECX) == 99 to be provable after the store")
}

// TestKillNameProjectionSoundness checks KillName's own postcondition: after
// eliminating a name, no clause left in the state mentions it. Per spec.md
// §8's projection-soundness property.
func TestKillNameProjectionSoundness(t *testing.T) {
	s := New(config.DefaultConfig(), nil)

	s.AddEq(term.Atomic("tmp"), term.Const(1), false)
	s.AddClause(logic.GetClause(
		logic.GetLiteral(logic.GetAtom(term.Atomic("tmp"), term.Const(2)), false),
		logic.GetLiteral(logic.GetAtom(term.Atomic("other"), term.Const(3)), false),
	))
	s.AddEq(term.Atomic("other"), term.Const(3), false)

	s.KillName("tmp")

	for c := range s.Clauses {
		require.False(t, c.Names()["tmp"], "clause %s still mentions the killed name", c)
	}
}

// TestKillNameLeavesUnrelatedFacts checks that killing one name doesn't
// disturb a fact that never mentioned it.
func TestKillNameLeavesUnrelatedFacts(t *testing.T) {
	s := New(config.DefaultConfig(), nil)

	s.AddEq(term.Atomic("tmp"), term.Const(1), false)
	s.AddEq(term.Atomic("other"), term.Const(3), false)

	s.KillName("tmp")

	require.Equal(t, smt.Sat, s.checkSolver())
	proof := s.Copy()
	proof.AddEq(term.Atomic("other"), term.Const(3), true)
	require.Equal(t, smt.Unsat, proof.checkSolver())
}
