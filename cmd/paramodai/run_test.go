package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logging"
)

func TestRunScenario_AllBuiltins(t *testing.T) {
	logger = logging.Nop()
	conf = config.DefaultConfig()

	for name := range registry {
		name := name
		t.Run(name, func(t *testing.T) {
			require.NoError(t, runScenario(name))
		})
	}
}

func TestRunScenario_Unknown(t *testing.T) {
	logger = logging.Nop()
	conf = config.DefaultConfig()

	require.Error(t, runScenario("no_such_scenario"))
}

func TestRunScenario_BoundsTerminate(t *testing.T) {
	logger = logging.Nop()
	conf = config.DefaultConfig()
	conf.MaxClauseSize = 2
	conf.MaxClauseRank = 1

	for name := range registry {
		_ = runScenario(name) // may fail to prove under tight bounds; must not hang or panic
	}
}
