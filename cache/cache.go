// Package cache persists a compiled grammar's tables to a JSON file keyed by the grammar's
// fingerprint, so a caller can skip grammar analysis and table construction entirely when the
// grammar's productions, precedence table and start symbol have not changed since the
// artifact was written. The fingerprint does not cover %token patterns, %skip or %name, so a
// change confined to those still matches the stored artifact.
package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ysakai/lrforge/grammar"
)

// CacheMismatchError reports that a cached artifact does not belong to the grammar the caller
// asked for: either its fingerprint does not match, or the artifact itself looks tampered
// with. Either way, the caller must fall back to compiling the grammar from scratch.
type CacheMismatchError struct {
	Path   string
	Reason string
	Wanted grammar.Fingerprint
	Found  grammar.Fingerprint
}

func (e *CacheMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cache mismatch at %v: %v", e.Path, e.Reason)
	}
	return fmt.Sprintf("cache mismatch at %v: wanted fingerprint %v, found %v", e.Path, e.Wanted, e.Found)
}

// entry is the on-disk shape written to and read from the cache file. Checksum guards against
// a hand-edited or truncated Table surviving a fingerprint match.
type entry struct {
	Fingerprint grammar.Fingerprint
	Checksum    string
	Grammar     *grammar.CompiledGrammar
}

// Store writes cgram to path, keyed by its own fingerprint and an integrity checksum of its
// table. It always overwrites whatever was previously at path.
func Store(path string, cgram *grammar.CompiledGrammar) error {
	sum, err := grammar.TableChecksum(cgram.Table)
	if err != nil {
		return fmt.Errorf("failed to checksum the parsing table: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %v for writing: %w", path, err)
	}
	defer f.Close()

	b, err := json.Marshal(&entry{
		Fingerprint: cgram.Fingerprint,
		Checksum:    sum,
		Grammar:     cgram,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal the cache entry: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("failed to write %v: %w", path, err)
	}
	return nil
}

// Load reads the artifact at path and verifies it matches wanted before returning it. A
// missing file is reported as a plain *os.PathError so callers can distinguish "no cache yet"
// from "cache present but unusable" (a *CacheMismatchError) with a single type switch.
func Load(path string, wanted grammar.Fingerprint) (*grammar.CompiledGrammar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, &CacheMismatchError{Path: path, Reason: fmt.Sprintf("corrupt cache file: %v", err)}
	}

	if e.Fingerprint != wanted {
		return nil, &CacheMismatchError{Path: path, Wanted: wanted, Found: e.Fingerprint}
	}

	sum, err := grammar.TableChecksum(e.Grammar.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum the loaded table: %w", err)
	}
	if sum != e.Checksum {
		return nil, &CacheMismatchError{Path: path, Reason: "table checksum does not match cached checksum"}
	}

	return e.Grammar, nil
}
