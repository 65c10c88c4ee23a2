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

func TestNullRC_ReturnsZero(t *testing.T) {
	a, err := Run(NullRC(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)

	final := finalState(a)
	require.NotNil(t, final, "no state reached the return block")

	require.True(t, ProveInfeasible(final, []state.Assertion{
		{Cond: "ne", Lhs: instr.EAX, Rhs: term.Const(0)},
	}), "expected EAX to provably equal 0")
}
