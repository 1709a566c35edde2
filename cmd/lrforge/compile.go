package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	verr "github.com/ysakai/lrforge/error"
	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar"
)

var compileFlags = struct {
	output   *string
	flavour  *string
	expected *int
	report   *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar into a parsing table",
		Example: `  lrforge compile grammar.lrf -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.flavour = cmd.Flags().StringP("flavour", "f", "lalr1", "table flavour: slr1, lalr1, or lr1")
	compileFlags.expected = cmd.Flags().IntP("expected-conflicts", "e", -1, "fail if more than this many conflicts remain (default: never fail)")
	compileFlags.report = cmd.Flags().BoolP("report", "r", true, "also write a <name>-report.json diagnostics file")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}

	sourceName := grmPath
	if sourceName == "" {
		sourceName = "stdin"
	}

	defer func() {
		if retErr == nil {
			return
		}
		if specErrs, ok := retErr.(verr.SpecErrors); ok {
			for _, e := range specErrs {
				e.FilePath = grmPath
				e.SourceName = sourceName
			}
		}
	}()

	var r io.Reader = os.Stdin
	if grmPath != "" {
		f, err := os.Open(grmPath)
		if err != nil {
			return fmt.Errorf("cannot open the grammar file %v: %w", grmPath, err)
		}
		defer f.Close()
		r = f
	}

	file, err := dsl.Parse(sourceName, r)
	if err != nil {
		return err
	}

	gram, err := grammar.NewGrammarBuilder(sourceName).Build(file)
	if err != nil {
		return err
	}

	flavour := grammar.Flavour(*compileFlags.flavour)
	opts := []grammar.CompileOption{grammar.WithReport()}
	if *compileFlags.expected >= 0 {
		opts = append(opts, grammar.WithExpectedConflicts(*compileFlags.expected))
	}

	cgram, err := grammar.Compile(gram, flavour, opts...)
	if err != nil {
		return err
	}

	if err := writeCompiledGrammarAndReport(cgram, *compileFlags.output, *compileFlags.report); err != nil {
		return fmt.Errorf("cannot write output files: %w", err)
	}

	if cgram.Report != nil {
		var implicit int
		for _, s := range cgram.Report.States {
			for _, c := range s.SRConflict {
				if c.ResolvedBy == grammar.ResolvedByShift.Int() {
					implicit++
				}
			}
			for _, c := range s.RRConflict {
				if c.ResolvedBy == grammar.ResolvedByProdOrder.Int() {
					implicit++
				}
			}
		}
		if implicit > 0 {
			fmt.Fprintf(os.Stdout, "%v conflicts resolved without an explicit precedence\n", implicit)
		}
	}

	return nil
}

// writeCompiledGrammarAndReport mirrors the three output modes a grammar name and an
// explicit -o path can combine into: an explicit file path, a directory to write
// <name>.json and <name>-report.json into, or stdout for the grammar with the report always
// written next to the current directory.
func writeCompiledGrammarAndReport(cgram *grammar.CompiledGrammar, path string, withReport bool) error {
	cgramPath, reportPath, err := makeOutputFilePaths(cgram.Name, path)
	if err != nil {
		return err
	}

	{
		var w io.Writer
		if cgramPath != "" {
			f, err := os.OpenFile(cgramPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		} else {
			w = os.Stdout
		}

		b, err := json.Marshal(cgram)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v\n", string(b))
	}

	if withReport && cgram.Report != nil {
		f, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()

		b, err := json.Marshal(cgram.Report)
		if err != nil {
			return err
		}
		fmt.Fprintf(f, "%v\n", string(b))
	}

	return nil
}

func makeOutputFilePaths(gramName string, path string) (string, string, error) {
	reportFileName := gramName + "-report.json"

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return "", filepath.Join(wd, reportFileName), nil
	}

	fi, err := os.Stat(path)
	if err == nil && fi.IsDir() {
		return filepath.Join(path, gramName+".json"), filepath.Join(path, reportFileName), nil
	}

	return path, filepath.Join(filepath.Dir(path), reportFileName), nil
}
