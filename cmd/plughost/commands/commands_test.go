package commands

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plughost/internal/printer"
)

const testdata = "../../../pkg/adapter/script/testdata"

// execute runs the root command with fresh flag values and returns what
// the printer wrote.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	configPath, logLevel, searchPaths, formatName = "", "off", nil, "jsfx"
	renderBlocks, renderFrequency, renderAmplitude = 100, 440, 0.5
	renderSettings, renderNotes = nil, nil
	presetDB, presetSettings = "", nil

	noColor := color.NoColor
	out, errOut := printer.Output, printer.ErrOutput
	t.Cleanup(func() {
		color.NoColor = noColor
		printer.Output, printer.ErrOutput = out, errOut
	})

	color.NoColor = true
	var stdout, stderr bytes.Buffer
	printer.Output, printer.ErrOutput = &stdout, &stderr

	rootCmd.SetArgs(append(args, "--log-level", "off"))
	err := Execute()
	return stdout.String(), stderr.String(), err
}

func TestScan(t *testing.T) {
	out, _, err := execute(t, "scan", "--path", testdata)
	require.NoError(t, err)

	assert.Contains(t, out, "jsfx (5)")
	assert.Contains(t, out, "  delay.jsfx\n")
	assert.Contains(t, out, "5 plugins found")
	assert.NotContains(t, out, "util.jsfx-inc")
}

func TestInfo(t *testing.T) {
	out, _, err := execute(t, "info", "delay.jsfx", "--path", testdata)
	require.NoError(t, err)

	assert.Contains(t, out, "Simple Delay")
	assert.Contains(t, out, "128 frames")
	assert.Contains(t, out, "Parameters (4)")
	assert.Contains(t, out, "Delay (ms)")
	assert.Contains(t, out, "{Normal, Ping Pong, Reverse}")
	assert.Contains(t, out, "audio in  0  Left In")
}

func TestInfoUnknownPlugin(t *testing.T) {
	_, stderr, err := execute(t, "info", "nope.jsfx", "--path", testdata)
	require.Error(t, err)

	assert.Contains(t, err.Error(), `plugin "nope.jsfx" not found`)
	assert.Contains(t, stderr, "Add its directory with --path")
}

func TestInfoBrokenPlugin(t *testing.T) {
	_, _, err := execute(t, "info", filepath.Join(testdata, "broken.jsfx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}

func TestRender(t *testing.T) {
	out, _, err := execute(t, "render", filepath.Join(testdata, "delay.jsfx"), "--blocks", "4", "--amp", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Rendered 2048 frames")
	assert.Contains(t, out, "out 0")
	assert.Contains(t, out, "out 1")
	assert.Contains(t, out, "render complete")
}

func TestRenderRejectsBadSetting(t *testing.T) {
	_, _, err := execute(t, "render", filepath.Join(testdata, "delay.jsfx"), "--set", "nosuch=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --set")
}

func TestPresetRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "presets.db")
	delay := filepath.Join(testdata, "delay.jsfx")

	out, _, err := execute(t, "preset", "save", delay, "Slapback", "--db", db, "--set", "0=500", "--set", "Mode=2")
	require.NoError(t, err)

	m := regexp.MustCompile(`as ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, _, err = execute(t, "preset", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Slapback")

	out, _, err = execute(t, "preset", "list", "other.jsfx", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no presets")

	out, _, err = execute(t, "preset", "load", delay, id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Delay (ms):")
	assert.Regexp(t, `Delay \(ms\):\s+500\n`, out)
	assert.Regexp(t, `Mode:\s+Reverse\n`, out)

	_, _, err = execute(t, "preset", "delete", id, "--db", db)
	require.NoError(t, err)

	_, _, err = execute(t, "preset", "load", delay, id, "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
