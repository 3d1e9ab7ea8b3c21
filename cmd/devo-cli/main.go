package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paretolabs/devo/cmd/devo-cli/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "devo-cli",
	Short: "CLI for the devo self-adaptive Differential Evolution engine",
	Long: `A command-line interface for running the devo optimization engine against
the built-in benchmark problems without writing any code.

The CLI provides:
- Single runs with live progress reporting
- Repeated-trial benchmarks with aggregate statistics
- A run archive for comparing past experiments
- Discovery of available problems and mutation variants`,
	Version: "0.1.0",
}

func main() {
	rootCmd.AddCommand(
		commands.NewSolveCommand(),
		commands.NewBenchCommand(),
		commands.NewProblemsCommand(),
		commands.NewVariantsCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
