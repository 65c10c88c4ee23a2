package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logging"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

func TestResourceManager_SlotsGetDistinctIDs(t *testing.T) {
	a, err := Run(ResourceManager(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)

	final := finalState(a)
	require.NotNil(t, final, "no state reached the return block")

	slotA := term.StackSlot(-0x14)
	slotB := term.StackSlot(-0x18)

	require.True(t, ProveInfeasible(final, []state.Assertion{
		{Cond: "eq", Lhs: slotA, Rhs: term.Const(0)},
	}), "stk_-14 should provably hold resource id 1, not 0")

	require.True(t, ProveInfeasible(final, []state.Assertion{
		{Cond: "eq", Lhs: slotB, Rhs: term.Const(1)},
	}), "stk_-18 should provably hold resource id 2, not 1")
}
