package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ysakai/lrforge/driver"
	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar"
)

var parseFlags = struct {
	flavour *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar file path> [source file path]",
		Short:   "Parse a source against a grammar and report accept or the first syntax error",
		Example: `  lrforge parse grammar.lrf src.txt`,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runParse,
	}
	parseFlags.flavour = cmd.Flags().StringP("flavour", "f", "lalr1", "table flavour: slr1, lalr1, or lr1")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	gf, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open the grammar file %v: %w", args[0], err)
	}
	defer gf.Close()

	file, err := dsl.Parse(args[0], gf)
	if err != nil {
		return err
	}

	gram, err := grammar.NewGrammarBuilder(args[0]).Build(file)
	if err != nil {
		return err
	}

	cgram, err := grammar.Compile(gram, grammar.Flavour(*parseFlags.flavour))
	if err != nil {
		return fmt.Errorf("cannot compile the grammar: %w", err)
	}

	src := os.Stdin
	if len(args) > 1 {
		sf, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("cannot open the source file %v: %w", args[1], err)
		}
		defer sf.Close()
		src = sf
	}

	p, err := driver.NewParser(cgram, src)
	if err != nil {
		return err
	}

	v, err := p.Parse()
	if err != nil {
		if perr, ok := err.(*driver.ParseError); ok {
			fmt.Fprintf(os.Stderr, "%v\n", perr)
			os.Exit(1)
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "accepted: %v\n", v)
	return nil
}
