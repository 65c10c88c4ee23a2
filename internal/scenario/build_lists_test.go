package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logging"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

func TestBuildLists_ItemsAreDistinct(t *testing.T) {
	a, err := Run(BuildLists(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)

	final := finalState(a)
	require.NotNil(t, final, "no state reached the return block")

	x := term.StackSlot(-0xc)
	y := term.StackSlot(-0x10)

	require.True(t, ProveInfeasible(final, []state.Assertion{
		{Cond: "eq", Lhs: x, Rhs: y},
	}), "the two allocated list items should provably be distinct objects")
}
