package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	noColor := color.NoColor
	out, errOut := Output, ErrOutput
	t.Cleanup(func() {
		color.NoColor = noColor
		Output, ErrOutput = out, errOut
	})

	color.NoColor = true
	var stdout, stderr bytes.Buffer
	Output, ErrOutput = &stdout, &stderr
	return &stdout, &stderr
}

func TestSuccessAddsCheckmarkOnce(t *testing.T) {
	stdout, _ := capture(t)

	Success("saved %s\n", "preset")
	Success("✓ done\n")

	assert.Equal(t, "✓ saved preset\n✓ done\n", stdout.String())
}

func TestFieldAlignment(t *testing.T) {
	stdout, _ := capture(t)

	Field("latency", 128)

	assert.Equal(t, "  latency:       128\n", stdout.String())
}

func TestErrorWithSuggestions(t *testing.T) {
	_, stderr := capture(t)

	err := Error("plugin not found", "no file named x.jsfx", []string{"check the path", "add a search path"})

	assert.EqualError(t, err, "plugin not found")
	assert.Contains(t, stderr.String(), "plugin not found\n\nno file named x.jsfx\n")
	assert.Contains(t, stderr.String(), "Either:\n  1. check the path\n  2. add a search path\n")
}

func TestErrorSingleSuggestion(t *testing.T) {
	_, stderr := capture(t)

	Error("bad config", "", []string{"fix it"})

	assert.Equal(t, "bad config\n\n\nfix it\n", stderr.String())
}
