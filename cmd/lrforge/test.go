package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar"
	"github.com/ysakai/lrforge/tester"
)

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file path> <test file path>|<test directory path>",
		Short:   "Run a grammar's accept/reject test cases",
		Example: `  lrforge test grammar.lrf test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open the grammar file %v: %w", args[0], err)
	}
	defer f.Close()

	file, err := dsl.Parse(args[0], f)
	if err != nil {
		return err
	}

	gram, err := grammar.NewGrammarBuilder(args[0]).Build(file)
	if err != nil {
		return err
	}

	cgram, err := grammar.Compile(gram, grammar.FlavourLALR1)
	if err != nil {
		return fmt.Errorf("cannot compile the grammar: %w", err)
	}

	cs := tester.ListTestCases(args[1])
	errOccurred := false
	for _, c := range cs {
		if c.Error != nil {
			fmt.Fprintf(os.Stderr, "failed to read a test case: %v\n%v\n", c.FilePath, c.Error)
			errOccurred = true
		}
	}
	if errOccurred {
		return errors.New("cannot run tests")
	}

	t := &tester.Tester{Grammar: cgram, Cases: cs}
	testFailed := false
	for _, r := range t.Run() {
		fmt.Fprintln(os.Stdout, r)
		if !r.Passed {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("some tests failed")
	}
	return nil
}
