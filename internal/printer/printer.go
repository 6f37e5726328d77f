// Package printer writes colored CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Output is where Success, Info, Step and Table write. Tests replace it.
var Output io.Writer = os.Stdout

// ErrOutput is where Warning and Error write.
var ErrOutput io.Writer = os.Stderr

// Success prints a message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Output, msg)
}

// Info prints a message in the default color.
func Info(format string, a ...any) {
	fmt.Fprintf(Output, format, a...)
}

// Warning prints a message in yellow.
func Warning(format string, a ...any) {
	yellow.Fprintf(ErrOutput, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a step of a multi-step operation.
func Step(format string, a ...any) {
	cyan.Fprintf(Output, "→ %s", fmt.Sprintf(format, a...))
}

// Header prints a bold section title.
func Header(format string, a ...any) {
	bold.Fprintf(Output, format+"\n", a...)
}

// Field prints an aligned "key: value" line.
func Field(key string, value any) {
	fmt.Fprintf(Output, "  %-14s %v\n", key+":", value)
}

// Error prints a title, an explanation and suggestions to ErrOutput and
// returns an error carrying the title for cobra.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(ErrOutput, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(ErrOutput, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(ErrOutput, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(ErrOutput, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(ErrOutput, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(ErrOutput, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}
