package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lrforge",
	Short: "lrforge is a parser table generator",
	Long: `lrforge computes SLR(1), LALR(1), and LR(1) parsing tables from a grammar
definition and drives a table-based shift-reduce parser over it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	return err
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
