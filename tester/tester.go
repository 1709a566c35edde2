// Package tester runs a compiled grammar over a directory of test cases and reports, per
// case, whether the parser's accept/reject verdict matched what the case expected. It does
// not diff parse trees: the driver this package exercises builds semantic values, not a
// fixed CST/AST shape, so there is no tree structure to compare against a golden file.
package tester

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ysakai/lrforge/driver"
	"github.com/ysakai/lrforge/grammar"
)

// TestCase is a single parse case: Source is fed to the parser, and Want records whether the
// case's author expects it to be accepted or rejected.
type TestCase struct {
	Source []byte
	Want   Verdict
}

type Verdict string

const (
	VerdictAccept Verdict = "ok"
	VerdictReject Verdict = "error"
)

// TestCaseWithMetadata pairs a parsed TestCase with the file it came from, or the error that
// occurred trying to read it.
type TestCaseWithMetadata struct {
	TestCase *TestCase
	FilePath string
	Error    error
}

// ListTestCases collects every test case file under testPath, recursing into directories. A
// file that fails to parse as a test case is still included, with its Error field set, so a
// caller can report every failure instead of stopping at the first one.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{{FilePath: testPath, Error: err}}
	}

	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{{TestCase: c, FilePath: testPath, Error: err}}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{{FilePath: testPath, Error: err}}
	}

	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cases = append(cases, ListTestCases(filepath.Join(testPath, e.Name()))...)
	}
	return cases
}

// parseTestCase reads a test case file: its first line is "ok" or "error", and everything
// after the first newline is the source to parse.
func parseTestCase(path string) (*TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty test case file")
	}
	header := strings.TrimSpace(scanner.Text())

	var want Verdict
	switch header {
	case string(VerdictAccept), string(VerdictReject):
		want = Verdict(header)
	default:
		return nil, fmt.Errorf("first line must be %q or %q, got %q", VerdictAccept, VerdictReject, header)
	}

	var src bytes.Buffer
	for scanner.Scan() {
		src.Write(scanner.Bytes())
		src.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &TestCase{Source: src.Bytes(), Want: want}, nil
}

// TestResult is the outcome of running a single TestCaseWithMetadata against a grammar.
type TestResult struct {
	TestCasePath string
	Passed       bool
	Got          Verdict
	Want         Verdict
	Error        error
}

func (r *TestResult) String() string {
	if r.Error != nil {
		return fmt.Sprintf("FAIL %v: %v", r.TestCasePath, r.Error)
	}
	if !r.Passed {
		return fmt.Sprintf("FAIL %v: wanted %v, got %v", r.TestCasePath, r.Want, r.Got)
	}
	return fmt.Sprintf("PASS %v", r.TestCasePath)
}

// Tester runs every case in Cases against Grammar.
type Tester struct {
	Grammar *grammar.CompiledGrammar
	Cases   []*TestCaseWithMetadata
}

func (t *Tester) Run() []*TestResult {
	rs := make([]*TestResult, len(t.Cases))
	for i, c := range t.Cases {
		rs[i] = runTest(t.Grammar, c)
	}
	return rs
}

func runTest(g *grammar.CompiledGrammar, c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{TestCasePath: c.FilePath, Error: c.Error}
	}

	p, err := driver.NewParser(g, bytes.NewReader(c.TestCase.Source))
	if err != nil {
		return &TestResult{TestCasePath: c.FilePath, Error: err}
	}

	_, err = p.Parse()
	got := VerdictAccept
	if err != nil {
		if _, ok := err.(*driver.ParseError); !ok {
			return &TestResult{TestCasePath: c.FilePath, Error: err}
		}
		got = VerdictReject
	}

	return &TestResult{
		TestCasePath: c.FilePath,
		Passed:       got == c.TestCase.Want,
		Got:          got,
		Want:         c.TestCase.Want,
	}
}
