package script

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/transport"
	"github.com/justyntemme/plughost/pkg/midi"
)

// midiPoolSize is the number of MIDI events a script buffers per block.
const midiPoolSize = 256

type pooledEvent struct {
	bus    uint32
	offset uint32
	size   int
	data   [midi.MaxEventSize]byte
}

type midiPool struct {
	events [midiPoolSize]pooledEvent
	count  int
	read   int
}

func (p *midiPool) reset() {
	p.count = 0
	p.read = 0
}

// assignment is a constant store found in @init.
type assignment struct {
	slot  int
	value float64
}

var statement = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*(-?[0-9.]+(?:[eE][-+]?[0-9]+)?)\s*$`)

// Effect is a loaded script. Audio is passed through input channel i to
// output channel i, extra outputs are silent and MIDI is echoed.
type Effect struct {
	path   string
	root   string
	script *Script

	compiled bool
	flags    adapter.CompileFlags

	values    [adapter.MaxSlotCapacity]atomic.Uint64
	changed   atomic.Uint64
	automated atomic.Uint64

	sampleRate float64
	blockSize  int
	latency    float64
	pdcDelay   float64 // frames
	initStores []assignment

	timeInfo transport.Snapshot

	in  midiPool
	out midiPool
}

func newEffect(path, root string, s *Script) *Effect {
	e := &Effect{path: path, root: root, script: s}
	for i, def := range s.Sliders {
		if def != nil {
			e.values[i].Store(math.Float64bits(def.Def))
		}
	}
	e.parseInit()
	return e
}

// parseInit collects constant slider and pdc_delay stores from @init.
func (e *Effect) parseInit() {
	vars := make(map[string]int)
	for i, def := range e.script.Sliders {
		if def == nil {
			continue
		}
		vars["slider"+strconv.Itoa(i+1)] = i
		if def.Var != "" {
			vars[def.Var] = i
		}
	}

	for _, stmt := range strings.Split(e.script.Sections[SectionInit], ";") {
		m := statement.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if m[1] == "pdc_delay" {
			e.pdcDelay = v
			continue
		}
		if slot, ok := vars[m[1]]; ok {
			e.initStores = append(e.initStores, assignment{slot: slot, value: v})
		}
	}
}

// Path returns the script file.
func (e *Effect) Path() string { return e.path }

// Root returns the import root.
func (e *Effect) Root() string { return e.root }

// Script returns the parsed script.
func (e *Effect) Script() *Script { return e.script }

// Compiled reports whether Compile accepted the script.
func (e *Effect) Compiled() bool { return e.compiled }

func (e *Effect) Name() string     { return e.script.Desc }
func (e *Effect) Author() string   { return e.script.Author }
func (e *Effect) Category() string { return strings.Join(e.script.Tags, " ") }
func (e *Effect) NumInputs() int   { return len(e.script.InPins) }
func (e *Effect) NumOutputs() int  { return len(e.script.OutPins) }
func (e *Effect) MaxSlots() int    { return adapter.MaxSlotCapacity }

func (e *Effect) InputName(channel int) string {
	if channel < 0 || channel >= len(e.script.InPins) {
		return ""
	}
	return e.script.InPins[channel]
}

func (e *Effect) OutputName(channel int) string {
	if channel < 0 || channel >= len(e.script.OutPins) {
		return ""
	}
	return e.script.OutPins[channel]
}

func (e *Effect) slider(rindex int) *SliderDef {
	if rindex < 0 || rindex >= adapter.MaxSlotCapacity {
		return nil
	}
	return e.script.Sliders[rindex]
}

func (e *Effect) Slot(rindex int) (param.Slot, bool) {
	def := e.slider(rindex)
	if def == nil {
		return param.Slot{}, false
	}

	s := param.Slot{
		RIndex: int32(rindex),
		Name:   def.Label,
		Min:    def.Min,
		Max:    def.Max,
		Def:    def.Def,
		Step:   def.Step,
	}
	if len(def.EnumNames) > 0 {
		s.Enum = true
		s.EnumCount = len(def.EnumNames)
	}
	return s, true
}

func (e *Effect) EnumName(rindex, i int) (string, bool) {
	def := e.slider(rindex)
	if def == nil || i < 0 || i >= len(def.EnumNames) {
		return "", false
	}
	return def.EnumNames[i], true
}

func (e *Effect) SlotValue(rindex int) float64 {
	if e.slider(rindex) == nil {
		return 0
	}
	return math.Float64frombits(e.values[rindex].Load())
}

func (e *Effect) SetSlotValue(rindex int, value float64) {
	if e.slider(rindex) == nil {
		return
	}
	e.values[rindex].Store(math.Float64bits(value))
}

func (e *Effect) Latency() float64 {
	return e.latency
}

func (e *Effect) SetSampleRate(rate float64) {
	e.sampleRate = rate
}

func (e *Effect) SetBlockSize(frames int) {
	e.blockSize = frames
}

// Init runs the constant stores of @init. Sliders it assigns are reported
// as changed by the next FetchChangedSlots.
func (e *Effect) Init() {
	var mask uint64
	for _, a := range e.initStores {
		e.values[a.slot].Store(math.Float64bits(a.value))
		mask |= 1 << uint(a.slot)
	}
	if mask != 0 {
		e.changed.Or(mask)
	}

	e.latency = 0
	if e.sampleRate > 0 && e.pdcDelay > 0 {
		e.latency = e.pdcDelay / e.sampleRate
	}

	e.in.reset()
	e.out.reset()
}

func (e *Effect) SetTimeInfo(snap transport.Snapshot) {
	e.timeInfo = snap
}

// TimeInfo returns the transport of the current block.
func (e *Effect) TimeInfo() transport.Snapshot {
	return e.timeInfo
}

func (e *Effect) Process(in, out [][]float32, frames int) {
	for ch := range out {
		dst := out[ch][:frames]
		if ch < len(in) {
			copy(dst, in[ch][:frames])
			continue
		}
		clear(dst)
	}

	// received events become this block's output
	e.in, e.out = e.out, e.in
	e.in.reset()
	e.out.read = 0
}

func (e *Effect) SendMidi(msg adapter.MidiMessage) bool {
	if len(msg.Data) == 0 || len(msg.Data) > midi.MaxEventSize || e.in.count >= midiPoolSize {
		return false
	}

	ev := &e.in.events[e.in.count]
	ev.bus = msg.Bus
	ev.offset = msg.Offset
	ev.size = copy(ev.data[:], msg.Data)
	e.in.count++
	return true
}

// ReceiveMidi returns the next output event. Its Data is valid until the
// next Process.
func (e *Effect) ReceiveMidi() (adapter.MidiMessage, bool) {
	if e.out.read >= e.out.count {
		return adapter.MidiMessage{}, false
	}

	ev := &e.out.events[e.out.read]
	e.out.read++
	return adapter.MidiMessage{Bus: ev.bus, Offset: ev.offset, Data: ev.data[:ev.size]}, true
}

func (e *Effect) FetchChangedSlots() uint64 {
	return e.changed.Swap(0)
}

func (e *Effect) FetchAutomatedSlots() uint64 {
	return e.automated.Swap(0)
}

// SaveState writes one "slot value" line per slider.
func (e *Effect) SaveState() ([]byte, bool) {
	var sb strings.Builder
	for i, def := range e.script.Sliders {
		if def == nil {
			continue
		}
		fmt.Fprintf(&sb, "%d %s\n", i, strconv.FormatFloat(e.SlotValue(i), 'g', -1, 64))
	}
	if sb.Len() == 0 {
		// a script without sliders still has a valid empty state
		return []byte("\n"), true
	}
	return []byte(sb.String()), true
}

// LoadState applies a blob written by SaveState. Nothing is applied unless
// every line names an existing slider with a numeric value.
func (e *Effect) LoadState(blob []byte) bool {
	parsed := make(map[int]float64)

	for _, line := range strings.Split(string(blob), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return false
		}
		slot, err := strconv.Atoi(fields[0])
		if err != nil || e.slider(slot) == nil {
			return false
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		parsed[slot] = v
	}

	slots := make([]int, 0, len(parsed))
	for slot := range parsed {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	for _, slot := range slots {
		e.values[slot].Store(math.Float64bits(parsed[slot]))
	}
	return true
}

func (e *Effect) Close() error {
	e.in.reset()
	e.out.reset()
	return nil
}
