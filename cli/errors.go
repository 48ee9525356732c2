package cli

import (
	"fmt"
	"io"
	"strings"

	calcerrors "github.com/aledsdavies/pcfgcalc/pkgs/errors"
)

// UsageError represents a CLI-level argument or flag problem, as
// distinct from a fatal *calcerrors.CalcError raised by the grammar
// loader or engine.
type UsageError struct {
	Message string
	Hint    string
}

func (e *UsageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError writes err to w with CLI-appropriate formatting: a
// *calcerrors.CalcError prints its category and any context, a
// *UsageError prints its hint, anything else prints plainly.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case *calcerrors.CalcError:
		formatCalcError(w, e, useColor)
	case *UsageError:
		formatUsageError(w, e, useColor)
	default:
		fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

func formatCalcError(w io.Writer, err *calcerrors.CalcError, useColor bool) {
	fmt.Fprintf(w, "%s[%s] %s\n", Colorize("Error: ", ColorRed, useColor), err.Type, err.Message)
	if err.Cause != nil {
		fmt.Fprintf(w, "%s%v\n", Colorize("  caused by: ", ColorGray, useColor), err.Cause)
	}
	for k, v := range err.Context {
		fmt.Fprintf(w, "%s%s=%v\n", Colorize("  ", ColorGray, useColor), k, v)
	}
}

func formatUsageError(w io.Writer, err *UsageError, useColor bool) {
	fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)
	if err.Hint != "" {
		fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
