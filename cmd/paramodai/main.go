// Command paramodai is the CLI front end for the abstract interpreter:
// each subcommand runs one built-in scenario to a fixpoint and reports
// whether its proof goal holds, mirroring the original per-benchmark
// `test.py` scripts' usage (`<program> <k_max_clause> <d_max_rank>`,
// `-1` for unbounded) collapsed into a single binary. Grounded on the
// teacher's cmd/nerd/main.go: a cobra rootCmd carrying persistent flags
// and zap logger setup in PersistentPreRunE/PersistentPostRun, with
// per-concern command files (here, run.go) registering subcommands in
// init().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/logging"
)

var (
	verbose       bool
	maxClauseSize int
	maxClauseRank int

	logger *zap.Logger
	conf   *config.Config
)

// rootCmd mirrors the teacher's rootCmd: global flags plus logger setup
// shared by every subcommand via PersistentPreRunE/PersistentPostRun.
var rootCmd = &cobra.Command{
	Use:   "paramodai",
	Short: "Abstract interpreter for machine code, verified over an equational clause domain",
	Long: `paramodai forward-analyzes a program to a fixpoint abstract state built from
first-order equational clauses, then discharges a safety or correctness
query by asking whether the final state entails the negation of the query.

Run a built-in scenario directly (e.g. "paramodai find_last") or via
"paramodai run <name>". -1 for --max-clause-size or --max-rank means
unbounded, per the original benchmarks' CLI convention.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		conf = config.DefaultConfig()
		conf.MaxClauseSize = config.ResolveBound(maxClauseSize)
		conf.MaxClauseRank = config.ResolveBound(maxClauseRank)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentFlags().IntVarP(&maxClauseSize, "max-clause-size", "k", 3, "max literals per retained clause, -1 for unbounded")
	rootCmd.PersistentFlags().IntVarP(&maxClauseRank, "max-rank", "d", 10, "max clause rank, -1 for unbounded")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
