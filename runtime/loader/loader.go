// Package loader parses a structures file and its per-nonterminal
// terminals files into a Grammar (spec.md §4.8 "Grammar.load", §6
// "External interfaces"). Every malformed or missing input is reported
// as a fatal *errors.CalcError — the loader never returns a partially
// built Grammar.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	calcerrors "github.com/aledsdavies/pcfgcalc/pkgs/errors"

	"github.com/aledsdavies/pcfgcalc/core/nonterminal"
	"github.com/aledsdavies/pcfgcalc/core/terminal"
	"github.com/aledsdavies/pcfgcalc/runtime/grammar"
	"github.com/aledsdavies/pcfgcalc/runtime/structure"
)

// MaxStructureLength is the maximum representation length retained
// from the structures file (spec.md §4.8). Longer structures are
// silently skipped, not rejected.
const MaxStructureLength = 40

// structureLine is one retained line of the structures file, parsed
// but not yet resolved against a NonterminalCollection.
type structureLine struct {
	repr      string
	runs      []structure.Run
	prob      float64
	sourceIDs map[string]struct{}
}

// Load reads structuresFile and terminalsFolder into a Grammar. logger
// may be nil; when set it receives debug-level progress as structures
// are resolved.
func Load(structuresFile, terminalsFolder string, logger *slog.Logger) (*grammar.Grammar, error) {
	lines, err := parseStructuresFile(structuresFile)
	if err != nil {
		return nil, err
	}

	collection := nonterminal.NewCollection()
	structures := make([]*structure.Structure, 0, len(lines))

	for _, line := range lines {
		nts := make([]*nonterminal.Nonterminal, len(line.runs))
		for i, run := range line.runs {
			fileRepr := run.NonterminalFileRepr()
			outRepr := run.OutRepresentation()
			key := fileRepr + "\x00" + outRepr
			nt, err := collection.GetOrInsert(key, func() (*nonterminal.Nonterminal, error) {
				return loadNonterminal(fileRepr, outRepr, terminalsFolder)
			})
			if err != nil {
				return nil, err
			}
			nts[i] = nt
		}
		structures = append(structures, structure.New(line.repr, line.runs, line.prob, line.sourceIDs, nts))
		if logger != nil {
			logger.Debug("loaded structure", "repr", line.repr, "probability", line.prob)
		}
	}

	return grammar.New(structures), nil
}

// parseStructuresFile reads the "S ->" header and every structure line
// up to the first blank line, skipping any line whose representation
// exceeds MaxStructureLength.
func parseStructuresFile(path string) ([]structureLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, calcerrors.Wrap(calcerrors.ErrMissingHeader, fmt.Sprintf("cannot read structures file %q", path), err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, calcerrors.New(calcerrors.ErrMissingHeader, "structures file is empty, expected header \"S ->\"")
	}
	if strings.TrimSpace(scanner.Text()) != "S ->" {
		return nil, calcerrors.New(calcerrors.ErrMissingHeader, fmt.Sprintf("expected header \"S ->\", got %q", scanner.Text()))
	}

	var lines []structureLine
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			break
		}
		parts := strings.Split(text, "\t")
		if len(parts) != 3 {
			return nil, calcerrors.New(calcerrors.ErrMalformedStructureLine, fmt.Sprintf("expected 3 tab-separated fields, got %d in %q", len(parts), text))
		}
		repr := parts[0]
		if len(repr) > MaxStructureLength {
			continue
		}

		prob, err := parseProbability(parts[1])
		if err != nil {
			return nil, calcerrors.Wrap(calcerrors.ErrProbabilityRange, fmt.Sprintf("structure %q has invalid probability %q", repr, parts[1]), err)
		}

		sourceIDs, err := parseSourceIDs(parts[2])
		if err != nil {
			return nil, calcerrors.Wrap(calcerrors.ErrEmptySourceIDs, fmt.Sprintf("structure %q has invalid source_ids %q", repr, parts[2]), err)
		}

		runs, err := structure.ParseRepresentation(repr)
		if err != nil {
			return nil, calcerrors.Wrap(calcerrors.ErrMalformedStructureLine, fmt.Sprintf("structure %q has malformed representation", repr), err)
		}

		lines = append(lines, structureLine{repr: repr, runs: runs, prob: prob, sourceIDs: sourceIDs})
	}
	if err := scanner.Err(); err != nil {
		return nil, calcerrors.Wrap(calcerrors.ErrMalformedStructureLine, "error scanning structures file", err)
	}

	return lines, nil
}

// parseProbability parses either a hex-float ("%a") or decimal float
// literal and validates it lies in (0,1] (spec.md §6).
func parseProbability(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if p <= 0 || p > 1 {
		return 0, fmt.Errorf("probability %v outside (0,1]", p)
	}
	return p, nil
}

// parseSourceIDs splits a comma-separated field into a non-empty set
// of non-empty tokens.
func parseSourceIDs(s string) (map[string]struct{}, error) {
	tokens := strings.Split(s, ",")
	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("source_ids contains an empty token")
		}
		ids = append(ids, tok)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("source_ids is empty")
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// loadNonterminal reads <terminalsFolder>/<fileRepr>.txt and parses its
// seen block (contiguous equal-probability lines grouped into one
// SeenGroup each) followed by its optional unseen block (spec.md §4.5,
// §6).
func loadNonterminal(fileRepr, outRepr, terminalsFolder string) (*nonterminal.Nonterminal, error) {
	path := filepath.Join(terminalsFolder, fileRepr+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, calcerrors.Wrap(calcerrors.ErrMissingTerminalsFile, fmt.Sprintf("cannot read terminals file %q", path), err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var groups []terminal.Group
	var allSeen [][]byte

	var pending []terminal.Entry
	var pendingProb float64
	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		groups = append(groups, terminal.NewSeenGroup(pending, pendingProb, outRepr))
		pending = nil
	}

	inUnseenBlock := false
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			flushPending()
			inUnseenBlock = true
			continue
		}

		parts := strings.SplitN(text, "\t", 3)
		if len(parts) != 3 {
			return nil, calcerrors.New(calcerrors.ErrMalformedTerminalLine, fmt.Sprintf("expected 3 tab-separated fields in %q", text))
		}

		sourceIDs, err := parseSourceIDs(parts[2])
		if err != nil {
			return nil, calcerrors.Wrap(calcerrors.ErrEmptySourceIDs, fmt.Sprintf("terminal line %q has invalid source_ids", text), err)
		}

		if inUnseenBlock {
			mask, err := terminal.ParseMask([]byte(parts[0]))
			if err != nil {
				return nil, calcerrors.Wrap(calcerrors.ErrInvalidGeneratorMask, fmt.Sprintf("unseen group %q has invalid mask", text), err)
			}
			mass, err := parseProbability(parts[1])
			if err != nil {
				return nil, calcerrors.Wrap(calcerrors.ErrProbabilityRange, fmt.Sprintf("unseen group %q has invalid mass", text), err)
			}
			unseen, ok := terminal.NewUnseenGroup(mask, outRepr, mass, allSeen)
			if !ok {
				return nil, calcerrors.New(calcerrors.ErrUnseenSpaceExhausted, fmt.Sprintf("unseen group %q: mask space fully covered by seen terminals", parts[0]))
			}
			groups = append(groups, unseen)
			continue
		}

		text0 := strings.ToLower(parts[0])
		prob, err := parseProbability(parts[1])
		if err != nil {
			return nil, calcerrors.Wrap(calcerrors.ErrProbabilityRange, fmt.Sprintf("terminal %q has invalid probability", text0), err)
		}

		entryText := []byte(text0)
		allSeen = append(allSeen, entryText)

		if len(pending) > 0 && prob != pendingProb {
			flushPending()
		}
		pendingProb = prob
		pending = append(pending, terminal.Entry{Text: entryText, SourceIDs: sourceIDs})
	}
	flushPending()

	if err := scanner.Err(); err != nil {
		return nil, calcerrors.Wrap(calcerrors.ErrMalformedTerminalLine, "error scanning terminals file", err)
	}
	if len(groups) == 0 {
		return nil, calcerrors.New(calcerrors.ErrMalformedTerminalLine, fmt.Sprintf("terminals file %q defines no groups", path))
	}

	return nonterminal.New(fileRepr, outRepr, groups), nil
}
