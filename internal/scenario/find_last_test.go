package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/logging"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

func TestFindLast_ReturnsMatchingNode(t *testing.T) {
	a, err := Run(FindLast(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)

	final := a.GetState(instr.ReturnAddr)
	require.NotNil(t, final, "no state reached the return block")

	target := term.StackSlot(8)
	eax := instr.EAX

	hyp := []state.Assertion{{Cond: "ne", Lhs: term.Deref(eax), Rhs: target}}
	require.True(t, ProveInfeasible(final, hyp),
		"expected EAX's pointee to provably equal the target")
}
