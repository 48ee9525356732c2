package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aledsdavies/pcfgcalc/core/lookup"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %q: %v", path, err)
	}
}

func TestLoadBuildsGrammarFromStructuresAndTerminals(t *testing.T) {
	dir := t.TempDir()
	structuresFile := filepath.Join(dir, "nonterminalRules.txt")
	terminalsDir := filepath.Join(dir, "terminals")
	if err := os.Mkdir(terminalsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeFile(t, structuresFile, "S ->\nL3\t0.5\ttraining\nD2\t0.5\ttraining\n\n")
	writeFile(t, filepath.Join(terminalsDir, "L3.txt"), "cat\t0.5\ttraining\ndog\t0.5\ttraining\n")
	writeFile(t, filepath.Join(terminalsDir, "D2.txt"), "12\t1.0\ttraining\n")

	g, err := Load(structuresFile, terminalsDir, nil)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	count := g.CountStrings()
	if count.Uint64() != 3 {
		t.Fatalf("expected count_strings=3, got %d", count.Uint64())
	}

	res := g.Lookup([]byte("dog"))
	if !res.Status.Has(lookup.CanParse) {
		t.Fatalf("expected dog to parse, status=%v", res.Status)
	}
	if res.Probability != 0.25 {
		t.Fatalf("expected probability 0.25, got %v", res.Probability)
	}

	res = g.Lookup([]byte("12"))
	if !res.Status.Has(lookup.CanParse) {
		t.Fatalf("expected 12 to parse, status=%v", res.Status)
	}
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	dir := t.TempDir()
	structuresFile := filepath.Join(dir, "nonterminalRules.txt")
	writeFile(t, structuresFile, "L3\t0.5\ttraining\n\n")

	if _, err := Load(structuresFile, dir, nil); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestLoadSkipsOverlongStructures(t *testing.T) {
	dir := t.TempDir()
	structuresFile := filepath.Join(dir, "nonterminalRules.txt")
	terminalsDir := filepath.Join(dir, "terminals")
	if err := os.Mkdir(terminalsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	longRepr := ""
	for i := 0; i < 41; i++ {
		longRepr += "L"
	}
	writeFile(t, structuresFile, "S ->\n"+longRepr+"1\t0.5\ttraining\nD2\t0.5\ttraining\n\n")
	writeFile(t, filepath.Join(terminalsDir, "D2.txt"), "12\t1.0\ttraining\n")

	g, err := Load(structuresFile, terminalsDir, nil)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(g.Structures) != 1 {
		t.Fatalf("expected the overlong structure to be skipped, got %d structures", len(g.Structures))
	}
}

func TestLoadRejectsUnseenSpaceExhausted(t *testing.T) {
	dir := t.TempDir()
	structuresFile := filepath.Join(dir, "nonterminalRules.txt")
	terminalsDir := filepath.Join(dir, "terminals")
	if err := os.Mkdir(terminalsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeFile(t, structuresFile, "S ->\nD1\t1.0\ttraining\n\n")
	var lines string
	for i := 0; i < 10; i++ {
		lines += string(rune('0'+i)) + "\t0.1\ttraining\n"
	}
	writeFile(t, filepath.Join(terminalsDir, "D1.txt"), lines+"\nD\t0.01\ttraining\n")

	if _, err := Load(structuresFile, terminalsDir, nil); err == nil {
		t.Fatalf("expected error for exhausted unseen space")
	}
}
