package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ysakai/lrforge/grammar"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Print a report file in readable, colorized format",
		Example: `  lrforge describe grammar-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) (retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if err, ok := v.(error); ok {
			retErr = err
		} else {
			retErr = fmt.Errorf("an unexpected error occurred: %v", v)
		}
		fmt.Fprintf(os.Stderr, "%v:\n%v", retErr, string(debug.Stack()))
	}()

	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	return writeReport(os.Stdout, report)
}

func readReport(path string) (*grammar.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open the report file %v: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	report := &grammar.Report{}
	if err := json.Unmarshal(b, report); err != nil {
		return nil, err
	}
	return report, nil
}

func writeReport(w io.Writer, report *grammar.Report) error {
	pterm.SetDefaultOutput(w)

	pterm.DefaultSection.Println("Terminals")
	for _, t := range report.Terminals {
		fmt.Fprintf(w, "  %3v %v\n", t.Number, t.Name)
	}

	pterm.DefaultSection.Println("Non-terminals")
	for _, n := range report.NonTerminals {
		fmt.Fprintf(w, "  %3v %v\n", n.Number, n.Name)
	}

	pterm.DefaultSection.Println("Productions")
	for _, p := range report.Productions {
		fmt.Fprintf(w, "  %3v %v\n", p.Number, p.LHS)
	}

	var conflictCount int
	for _, s := range report.States {
		conflictCount += len(s.SRConflict) + len(s.RRConflict)
	}

	section := pterm.DefaultSection
	if conflictCount > 0 {
		section.Println(pterm.Red(fmt.Sprintf("States (%v conflicts)", conflictCount)))
	} else {
		section.Println(pterm.Green("States (no conflicts)"))
	}

	for _, s := range report.States {
		fmt.Fprintf(w, "state #%v\n", s.Number)
		for _, sr := range s.SRConflict {
			fmt.Fprintln(w, pterm.Red(fmt.Sprintf("  shift/reduce conflict on %v, resolved by %v", sr.Symbol, sr.ResolvedBy)))
		}
		for _, rr := range s.RRConflict {
			fmt.Fprintln(w, pterm.Red(fmt.Sprintf("  reduce/reduce conflict on %v, resolved by %v", rr.Symbol, rr.ResolvedBy)))
		}
	}

	return nil
}
