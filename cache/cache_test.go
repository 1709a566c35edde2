package cache

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar"
)

const testGrammarSrc = `
%name expr
%token num "[0-9]+"
%token plus "\+"
%left plus
%start expr

expr
    : expr plus expr
    | num
    ;
`

func compileTestGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()
	f, err := dsl.Parse("test", strings.NewReader(testGrammarSrc))
	if err != nil {
		t.Fatalf("failed to parse grammar: %v", err)
	}
	gram, err := grammar.NewGrammarBuilder("test").Build(f)
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	cgram, err := grammar.Compile(gram, grammar.FlavourLALR1)
	if err != nil {
		t.Fatalf("failed to compile grammar: %v", err)
	}
	return cgram
}

func TestStoreAndLoad_RoundTrip(t *testing.T) {
	cgram := compileTestGrammar(t)
	path := filepath.Join(t.TempDir(), "grammar.json")

	if err := Store(path, cgram); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	loaded, err := Load(path, cgram.Fingerprint)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != cgram.Name {
		t.Fatalf("expected name %v, got %v", cgram.Name, loaded.Name)
	}
}

func TestLoad_FingerprintMismatch(t *testing.T) {
	cgram := compileTestGrammar(t)
	path := filepath.Join(t.TempDir(), "grammar.json")

	if err := Store(path, cgram); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	var wrong grammar.Fingerprint
	copy(wrong[:], "not the right fingerprint bytes")

	_, err := Load(path, wrong)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}
	if _, ok := err.(*CacheMismatchError); !ok {
		t.Fatalf("expected a *CacheMismatchError, got %T: %v", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), grammar.Fingerprint{})
	if err == nil {
		t.Fatal("expected an error for a missing cache file")
	}
	if _, ok := err.(*CacheMismatchError); ok {
		t.Fatal("a missing file should surface as a plain error, not a cache mismatch")
	}
}
