// Command pcfgcalc is the CLI driver over the in-memory PCFG grammar
// engine: pattern/string enumeration, random sampling, and lookup
// (spec.md §6).
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/pcfgcalc/cli"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
	calcerrors "github.com/aledsdavies/pcfgcalc/pkgs/errors"
	"github.com/aledsdavies/pcfgcalc/runtime/grammar"
	"github.com/aledsdavies/pcfgcalc/runtime/loader"
	"github.com/aledsdavies/pcfgcalc/runtime/structure"
)

var (
	structuresFile  string
	terminalsFolder string
	debug           bool
	noColor         bool
)

func main() {
	useColor := true

	rootCmd := &cobra.Command{
		Use:           "pcfgcalc",
		Short:         "Compute PCFG password-strength guess numbers",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&structuresFile, "structures", "nonterminalRules.txt", "Path to the structures file")
	rootCmd.PersistentFlags().StringVar(&terminalsFolder, "terminals", "terminals", "Path to the per-nonterminal terminals folder")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(newPatternsCommand(), newStringsCommand(), newRandomCommand(), newLookupCommand())

	if err := rootCmd.Execute(); err != nil {
		useColor = cli.ShouldUseColor(noColor)
		cli.FormatError(os.Stderr, err, useColor)
		os.Exit(1)
	}
}

// newLogger builds the run-scoped slog.Logger, tagged with a random
// run id for cross-invocation correlation in aggregated logs, time and
// level keys stripped for clean single-process output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler).With("run_id", uuid.NewString())
}

func loadGrammar(logger *slog.Logger) (*grammar.Grammar, error) {
	logger.Debug("loading grammar", "structures", structuresFile, "terminals", terminalsFolder)
	g, err := loader.Load(structuresFile, terminalsFolder, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("grammar loaded", "structures", len(g.Structures))
	return g, nil
}

func newPatternsCommand() *cobra.Command {
	var cutoff float64
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Enumerate canonical patterns above a probability cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cutoff <= 0 || cutoff > 1 {
				return &cli.UsageError{Message: "--cutoff must lie in (0,1]"}
			}
			logger := newLogger()
			g, err := loadGrammar(logger)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			g.GeneratePatterns(cutoff, func(p structure.GeneratePattern) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", formatProbability(p.Probability), p.Count.String(), p.FirstString)
			})
			return nil
		},
	}
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "Minimum pattern probability to emit")
	return cmd
}

func newStringsCommand() *cobra.Command {
	var cutoff float64
	var accurate bool
	cmd := &cobra.Command{
		Use:   "strings",
		Short: "Enumerate strings above a probability cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cutoff <= 0 || cutoff > 1 {
				return &cli.UsageError{Message: "--cutoff must lie in (0,1]"}
			}
			logger := newLogger()
			g, err := loadGrammar(logger)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			g.GenerateStrings(cutoff, accurate, func(prob float64, str []byte) {
				fmt.Fprintf(w, "%s\t%s\n", formatProbability(prob), str)
			})
			return nil
		},
	}
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "Minimum string probability to emit")
	cmd.Flags().BoolVar(&accurate, "accurate", false, "Fold in probability mass from every structure that can also produce the same string")
	return cmd
}

func newRandomCommand() *cobra.Command {
	var count int
	var seed int64
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Draw random strings weighted by their grammar probability",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return &cli.UsageError{Message: "--count must be positive"}
			}
			logger := newLogger()
			g, err := loadGrammar(logger)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			g.GenerateRandomStrings(count, rng, logger, func(prob float64, str []byte) {
				fmt.Fprintf(w, "%s\t%s\n", formatProbability(prob), str)
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "Number of random strings to draw")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for deterministic sampling")
	return cmd
}

func newLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <password>",
		Short: "Report the probability and guess rank of a specific password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			g, err := loadGrammar(logger)
			if err != nil {
				return err
			}
			res := g.Lookup([]byte(args[0]))
			index := "-"
			if res.Index != nil {
				index = res.Index.String()
			}
			if res.Status.Has(lookup.CanParse) {
				fmt.Printf("%s,%s,%s,%s,%s\n", formatProbability(res.Probability), index, res.Status.String(), res.FirstStringOfPattern, formatSourceIDs(res.SourceIDs))
				return nil
			}
			fmt.Printf("%s,%d,%s,,\n", formatProbability(0), -int64(res.Status), res.Status.String())
			if res.Status.Has(lookup.TerminalCollision) || res.Status.Has(lookup.UnexpectedFailure) {
				return calcerrors.New("INTERNAL_LOOKUP_INCONSISTENCY", fmt.Sprintf("unexpected lookup status %s for %q", res.Status, args[0]))
			}
			return nil
		},
	}
	return cmd
}

// formatProbability renders p as a hex-float for exact round-trip
// comparison against the original source data (spec.md §6).
func formatProbability(p float64) string {
	return fmt.Sprintf("%x", p)
}

func formatSourceIDs(ids map[string]struct{}) string {
	if len(ids) == 0 {
		return ""
	}
	out := make([]byte, 0, len(ids)*8)
	first := true
	for id := range ids {
		if !first {
			out = append(out, ';')
		}
		out = append(out, id...)
		first = false
	}
	return string(out)
}
