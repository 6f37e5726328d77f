// Package adaptertest provides an in-memory adapter.Effect and
// adapter.Format with fault injection for tests.
package adaptertest

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/transport"
)

// Config describes a fake effect.
type Config struct {
	Name     string
	Author   string
	Category string

	InputNames  []string // "" entries report no name
	OutputNames []string

	MaxSlots  int
	Slots     []param.Slot // RIndex selects the slot
	EnumNames map[int][]string

	LatencySeconds float64
	Programs       []string
	Gain           float32

	// OnInit runs after every Init, outside the effect lock.
	OnInit func()
}

// Effect is a pass-through effect scaled by Config.Gain that records the
// calls it receives.
type Effect struct {
	mu sync.Mutex

	cfg    Config
	slots  map[int]param.Slot
	values map[int]float64

	sampleRate float64
	blockSize  int
	initCount  int
	closed     bool

	timeInfo transport.Snapshot
	program  int

	sent    []adapter.MidiMessage
	pending []adapter.MidiMessage
	recvBuf []byte

	changed   uint64
	automated uint64

	// Fault injection
	PanicOnProcess bool
	RefuseSave     bool
	RefuseLoad     bool
	ProcessCalls   int
}

// NewEffect creates an effect from cfg with every slot at its default.
func NewEffect(cfg Config) *Effect {
	if cfg.MaxSlots == 0 {
		cfg.MaxSlots = adapter.MaxSlotCapacity
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1
	}

	e := &Effect{
		cfg:     cfg,
		slots:   make(map[int]param.Slot),
		values:  make(map[int]float64),
		program: -1,
	}
	for _, s := range cfg.Slots {
		e.slots[int(s.RIndex)] = s
		e.values[int(s.RIndex)] = s.Def
	}
	return e
}

func (e *Effect) Name() string     { return e.cfg.Name }
func (e *Effect) Author() string   { return e.cfg.Author }
func (e *Effect) Category() string { return e.cfg.Category }
func (e *Effect) NumInputs() int   { return len(e.cfg.InputNames) }
func (e *Effect) NumOutputs() int  { return len(e.cfg.OutputNames) }
func (e *Effect) MaxSlots() int    { return e.cfg.MaxSlots }

func (e *Effect) InputName(channel int) string {
	if channel < 0 || channel >= len(e.cfg.InputNames) {
		return ""
	}
	return e.cfg.InputNames[channel]
}

func (e *Effect) OutputName(channel int) string {
	if channel < 0 || channel >= len(e.cfg.OutputNames) {
		return ""
	}
	return e.cfg.OutputNames[channel]
}

func (e *Effect) Slot(rindex int) (param.Slot, bool) {
	s, ok := e.slots[rindex]
	return s, ok
}

func (e *Effect) EnumName(rindex, i int) (string, bool) {
	names := e.cfg.EnumNames[rindex]
	if i < 0 || i >= len(names) {
		return "", false
	}
	return names[i], true
}

func (e *Effect) SlotValue(rindex int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[rindex]
}

func (e *Effect) SetSlotValue(rindex int, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.slots[rindex]; ok {
		e.values[rindex] = value
	}
}

// SetLatency changes the latency reported after the next Init.
func (e *Effect) SetLatency(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.LatencySeconds = seconds
}

func (e *Effect) Latency() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.LatencySeconds
}

func (e *Effect) SetSampleRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sampleRate = rate
}

func (e *Effect) SetBlockSize(frames int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockSize = frames
}

func (e *Effect) Init() {
	e.mu.Lock()
	e.initCount++
	e.mu.Unlock()

	if e.cfg.OnInit != nil {
		e.cfg.OnInit()
	}
}

func (e *Effect) SetTimeInfo(snap transport.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeInfo = snap
}

func (e *Effect) Process(in, out [][]float32, frames int) {
	e.mu.Lock()
	e.ProcessCalls++
	panics := e.PanicOnProcess
	gain := e.cfg.Gain
	e.mu.Unlock()

	for ch := range out {
		if ch < len(in) {
			for i := 0; i < frames; i++ {
				out[ch][i] = in[ch][i] * gain
			}
			continue
		}
		clear(out[ch][:frames])
	}

	if panics {
		panic("adaptertest: injected process failure")
	}
}

// SendMidi records a copy of msg.
func (e *Effect) SendMidi(msg adapter.MidiMessage) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := make([]byte, len(msg.Data))
	copy(data, msg.Data)
	msg.Data = data
	e.sent = append(e.sent, msg)
	return true
}

// Sent returns the messages received through SendMidi and forgets them.
func (e *Effect) Sent() []adapter.MidiMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.sent
	e.sent = nil
	return out
}

// QueueOutput makes ReceiveMidi return msg after the already queued ones.
func (e *Effect) QueueOutput(msg adapter.MidiMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, msg)
}

// PendingOutput returns the number of queued output messages.
func (e *Effect) PendingOutput() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Effect) ReceiveMidi() (adapter.MidiMessage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 {
		return adapter.MidiMessage{}, false
	}
	msg := e.pending[0]
	e.pending = e.pending[1:]
	return msg, true
}

// MarkChanged sets slot bits reported by the next fetch. Values are applied
// as if the effect changed them itself.
func (e *Effect) MarkChanged(rindex int, value float64, automated bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.values[rindex] = value
	if automated {
		e.automated |= 1 << uint(rindex)
	} else {
		e.changed |= 1 << uint(rindex)
	}
}

func (e *Effect) FetchChangedSlots() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.changed
	e.changed = 0
	return m
}

func (e *Effect) FetchAutomatedSlots() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.automated
	e.automated = 0
	return m
}

// SaveState writes one "rindex value" line per slot.
func (e *Effect) SaveState() ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.RefuseSave {
		return nil, false
	}

	keys := make([]int, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%d %s\n", k, strconv.FormatFloat(e.values[k], 'g', -1, 64))
	}
	return []byte(sb.String()), true
}

func (e *Effect) LoadState(blob []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.RefuseLoad {
		return false
	}

	parsed := make(map[int]float64)
	for _, line := range strings.Split(strings.TrimSpace(string(blob)), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return false
		}
		k, err := strconv.Atoi(fields[0])
		if err != nil {
			return false
		}
		if _, ok := e.slots[k]; !ok {
			return false
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return false
		}
		parsed[k] = v
	}

	for k, v := range parsed {
		e.values[k] = v
	}
	return true
}

func (e *Effect) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Programs

func (e *Effect) ProgramCount() int { return len(e.cfg.Programs) }

func (e *Effect) ProgramName(index int) string {
	if index < 0 || index >= len(e.cfg.Programs) {
		return ""
	}
	return e.cfg.Programs[index]
}

func (e *Effect) SetProgram(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.program = index
}

// Inspection helpers

// Program returns the last program set, or -1.
func (e *Effect) Program() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.program
}

// InitCount returns how many times Init ran.
func (e *Effect) InitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initCount
}

// SampleRate returns the last rate pushed by the host.
func (e *Effect) SampleRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampleRate
}

// BlockSize returns the last block size pushed by the host.
func (e *Effect) BlockSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blockSize
}

// TimeInfo returns the last transport snapshot.
func (e *Effect) TimeInfo() transport.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeInfo
}

// Closed reports whether Close ran.
func (e *Effect) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// SetPanicOnProcess toggles the injected Process panic.
func (e *Effect) SetPanicOnProcess(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PanicOnProcess = v
}

// Format serves fake effects for any existing file.
type Format struct {
	Config Config

	// CompileErr is returned by Compile when set.
	CompileErr error

	mu     sync.Mutex
	loaded []*Effect
	roots  []string
}

// NewFormat creates a format that builds effects from cfg.
func NewFormat(cfg Config) *Format {
	return &Format{Config: cfg}
}

func (f *Format) Name() string         { return "test" }
func (f *Format) Extensions() []string { return []string{".test"} }

func (f *Format) Load(path, root string) (adapter.Effect, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", adapter.ErrNotFound, path)
	}

	e := NewEffect(f.Config)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, e)
	f.roots = append(f.roots, root)
	return e, nil
}

func (f *Format) Compile(e adapter.Effect, flags adapter.CompileFlags) error {
	if _, ok := e.(*Effect); !ok {
		return adapter.ErrWrongEffect
	}
	if f.CompileErr != nil {
		return fmt.Errorf("%w: %v", adapter.ErrCompile, f.CompileErr)
	}
	return nil
}

// Last returns the most recently loaded effect and its import root.
func (f *Format) Last() (*Effect, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.loaded) == 0 {
		return nil, ""
	}
	return f.loaded[len(f.loaded)-1], f.roots[len(f.roots)-1]
}
