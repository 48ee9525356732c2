package cli

import (
	"bytes"
	"strings"
	"testing"

	calcerrors "github.com/aledsdavies/pcfgcalc/pkgs/errors"
)

func TestFormatErrorCalcError(t *testing.T) {
	err := calcerrors.New(calcerrors.ErrMissingHeader, "expected header")
	var buf bytes.Buffer
	FormatError(&buf, err, false)

	out := buf.String()
	if !strings.Contains(out, "MISSING_HEADER") {
		t.Fatalf("expected output to contain error type, got %q", out)
	}
	if !strings.Contains(out, "expected header") {
		t.Fatalf("expected output to contain message, got %q", out)
	}
}

func TestFormatErrorUsageError(t *testing.T) {
	err := &UsageError{Message: "bad flag", Hint: "try --cutoff 0.5"}
	var buf bytes.Buffer
	FormatError(&buf, err, false)

	out := buf.String()
	if !strings.Contains(out, "bad flag") || !strings.Contains(out, "try --cutoff 0.5") {
		t.Fatalf("expected message and hint in output, got %q", out)
	}
}

func TestColorizeRespectsFlag(t *testing.T) {
	if got := Colorize("x", ColorRed, false); got != "x" {
		t.Fatalf("expected uncolored text, got %q", got)
	}
	if got := Colorize("x", ColorRed, true); got == "x" {
		t.Fatalf("expected colored text to differ from plain text")
	}
}
