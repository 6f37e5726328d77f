package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plughost/pkg/adapter"
)

func load(t *testing.T, name, root string) *Effect {
	t.Helper()
	e, err := NewFormat().Load(filepath.Join("testdata", name), root)
	require.NoError(t, err)
	return e.(*Effect)
}

func TestParseHeader(t *testing.T) {
	e := load(t, "delay.jsfx", "testdata")
	s := e.Script()

	assert.Equal(t, "Simple Delay", e.Name())
	assert.Equal(t, "plughost", e.Author())
	assert.Equal(t, "delay stereo", e.Category())
	assert.Equal(t, 2, e.NumInputs())
	assert.Equal(t, 2, e.NumOutputs())
	assert.Equal(t, "Right In", e.InputName(1))
	assert.Equal(t, "Left Out", e.OutputName(0))
	assert.Empty(t, e.OutputName(5))
	assert.Empty(t, s.Problems)

	require.NotNil(t, s.Sliders[0])
	assert.Nil(t, s.Sliders[1])
	assert.Equal(t, "delay_ms", s.Sliders[0].Var)
	assert.Equal(t, 300.0, s.Sliders[0].Def)
	assert.Equal(t, -60.0, s.Sliders[2].Min)
	assert.Equal(t, 0.1, s.Sliders[2].Step)
	assert.Equal(t, []string{"Normal", "Ping Pong", "Reverse"}, s.Sliders[3].EnumNames)
	assert.True(t, s.Sliders[4].Hidden)
	assert.Equal(t, "Meter", s.Sliders[4].Label)

	assert.Contains(t, s.Sections[SectionSlider], "delay_len")
	assert.Contains(t, s.Sections[SectionSample], "spl0")
}

func TestSlots(t *testing.T) {
	e := load(t, "delay.jsfx", "testdata")

	_, ok := e.Slot(1)
	assert.False(t, ok)
	_, ok = e.Slot(adapter.MaxSlotCapacity)
	assert.False(t, ok)

	mode, ok := e.Slot(3)
	require.True(t, ok)
	assert.True(t, mode.Enum)
	assert.Equal(t, 3, mode.EnumCount)
	assert.Equal(t, int32(3), mode.RIndex)
	assert.Equal(t, "Mode", mode.Name)

	name, ok := e.EnumName(3, 1)
	assert.True(t, ok)
	assert.Equal(t, "Ping Pong", name)
	_, ok = e.EnumName(3, 3)
	assert.False(t, ok)
	_, ok = e.EnumName(0, 0)
	assert.False(t, ok)
}

func TestDefaultPins(t *testing.T) {
	e := load(t, "imports.jsfx", "testdata/lib")
	assert.Equal(t, 2, e.NumInputs())
	assert.Equal(t, 2, e.NumOutputs())
	assert.Empty(t, e.InputName(0))
}

func TestLoadNotFound(t *testing.T) {
	_, err := NewFormat().Load(filepath.Join("testdata", "nope.jsfx"), "testdata")
	assert.ErrorIs(t, err, adapter.ErrNotFound)
}

func TestLoadUsesFileNameWithoutDesc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jsfx")
	require.NoError(t, os.WriteFile(path, []byte("slider1:0<0,1>X\n"), 0644))

	e, err := NewFormat().Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "plain", e.Name())
}

func TestCompileReportsProblems(t *testing.T) {
	f := NewFormat()
	e := load(t, "broken.jsfx", "testdata")

	err := f.Compile(e, 0)
	require.ErrorIs(t, err, adapter.ErrCompile)
	assert.Contains(t, err.Error(), "unknown section @nosuchsection")
	assert.Contains(t, err.Error(), "slider index 99")
	assert.False(t, e.Compiled())
}

func TestCompileResolvesImports(t *testing.T) {
	f := NewFormat()

	err := f.Compile(load(t, "imports.jsfx", "testdata/lib"), 0)
	require.ErrorIs(t, err, adapter.ErrCompile)
	assert.Contains(t, err.Error(), "missing.jsfx-inc")
	assert.False(t, strings.Contains(err.Error(), "import util.jsfx-inc"))

	ok := load(t, "noimport.jsfx", "testdata/lib")
	require.NoError(t, f.Compile(ok, adapter.CompileNoGfx))
	assert.True(t, ok.Compiled())
	_, hasGfx := ok.Script().Sections[SectionGfx]
	assert.False(t, hasGfx)

	assert.ErrorIs(t, f.Compile(load(t, "noimport.jsfx", ""), 0), adapter.ErrCompile)
}

func TestCompileRejectsForeignEffect(t *testing.T) {
	assert.ErrorIs(t, NewFormat().Compile(nil, 0), adapter.ErrWrongEffect)
}

func TestInitStoresAndLatency(t *testing.T) {
	e := load(t, "delay.jsfx", "testdata")
	assert.Equal(t, -6.0, e.SlotValue(2))
	assert.Zero(t, e.Latency())

	e.SetSampleRate(48000)
	e.SetBlockSize(256)
	e.Init()

	assert.InDelta(t, 128.0/48000, e.Latency(), 1e-12)
	assert.Equal(t, -12.0, e.SlotValue(2))
	assert.Equal(t, uint64(1<<2), e.FetchChangedSlots())
	assert.Zero(t, e.FetchChangedSlots())
	assert.Zero(t, e.FetchAutomatedSlots())
}

func TestSlotValues(t *testing.T) {
	e := load(t, "delay.jsfx", "testdata")

	e.SetSlotValue(0, 750)
	assert.Equal(t, 750.0, e.SlotValue(0))

	e.SetSlotValue(1, 5)
	assert.Zero(t, e.SlotValue(1))
	e.SetSlotValue(-1, 5)
	assert.Zero(t, e.SlotValue(-1))
}

func TestProcessPassThrough(t *testing.T) {
	e := load(t, "mono.jsfx", "testdata")
	require.Equal(t, 1, e.NumInputs())
	require.Equal(t, 2, e.NumOutputs())

	in := [][]float32{{0.1, 0.2, 0.3, 0.4}}
	out := [][]float32{{9, 9, 9, 9}, {9, 9, 9, 9}}
	e.Process(in, out, 4)

	assert.Equal(t, in[0], out[0])
	assert.Equal(t, []float32{0, 0, 0, 0}, out[1])
}

func TestMidiThrough(t *testing.T) {
	e := load(t, "mono.jsfx", "testdata")
	e.Init()

	assert.False(t, e.SendMidi(adapter.MidiMessage{}))
	require.True(t, e.SendMidi(adapter.MidiMessage{Offset: 3, Data: []byte{0x90, 60, 100}}))
	require.True(t, e.SendMidi(adapter.MidiMessage{Offset: 5, Data: []byte{0x80, 60, 0}}))

	_, ok := e.ReceiveMidi()
	assert.False(t, ok, "events only come out after processing")

	out := [][]float32{make([]float32, 8), make([]float32, 8)}
	e.Process([][]float32{make([]float32, 8)}, out, 8)

	msg, ok := e.ReceiveMidi()
	require.True(t, ok)
	assert.Equal(t, uint32(3), msg.Offset)
	assert.Equal(t, []byte{0x90, 60, 100}, msg.Data)

	msg, ok = e.ReceiveMidi()
	require.True(t, ok)
	assert.Equal(t, uint32(5), msg.Offset)

	_, ok = e.ReceiveMidi()
	assert.False(t, ok)

	e.Process([][]float32{make([]float32, 8)}, out, 8)
	_, ok = e.ReceiveMidi()
	assert.False(t, ok, "output is cleared each block")
}

func TestState(t *testing.T) {
	e := load(t, "delay.jsfx", "testdata")
	e.SetSlotValue(0, 1234.5)
	e.SetSlotValue(3, 2)

	blob, ok := e.SaveState()
	require.True(t, ok)
	assert.Contains(t, string(blob), "0 1234.5\n")

	e.SetSlotValue(0, 1)
	e.SetSlotValue(3, 0)
	require.True(t, e.LoadState(blob))
	assert.Equal(t, 1234.5, e.SlotValue(0))
	assert.Equal(t, 2.0, e.SlotValue(3))

	assert.False(t, e.LoadState([]byte("0 10\n1 5\n")), "slot 1 does not exist")
	assert.Equal(t, 1234.5, e.SlotValue(0), "rejected blob must not be applied")
	assert.False(t, e.LoadState([]byte("0 abc\n")))
	assert.False(t, e.LoadState([]byte("garbage")))
}
