package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logging"
)

func TestCVE20147841_NoNullDeref(t *testing.T) {
	a, err := Run(CVE20147841(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)
	require.NoError(t, CheckNoNullDerefs(a))
}
