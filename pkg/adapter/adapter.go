// Package adapter defines the contract every plugin format backend satisfies.
// The runtime in package plugin depends only on these interfaces.
package adapter

import (
	"errors"

	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/transport"
)

// MaxSlotCapacity is the largest number of control slots an Effect may
// report. Slot change masks are uint64 bitsets, one bit per slot.
const MaxSlotCapacity = 64

var (
	// ErrNotFound is returned by Format.Load when the file does not exist.
	ErrNotFound = errors.New("plugin file not found")
	// ErrCompile is returned by Format.Compile when the source is rejected.
	ErrCompile = errors.New("compile failed")
	// ErrWrongEffect is returned when an Effect is handed to a Format that
	// did not create it.
	ErrWrongEffect = errors.New("effect belongs to another format")
)

// CompileFlags tune the compile step.
type CompileFlags uint32

const (
	// CompileNoSerialize skips the serialization section.
	CompileNoSerialize CompileFlags = 1 << iota
	// CompileNoGfx skips the graphics section.
	CompileNoGfx
)

// MidiMessage is one MIDI event exchanged with an Effect. Data is only valid
// for the duration of the call that produced or received it.
type MidiMessage struct {
	Bus    uint32
	Offset uint32
	Data   []byte
}

// Effect is one loaded plugin of some format.
//
// Process, SetTimeInfo, SendMidi, ReceiveMidi, SlotValue, SetSlotValue and the
// Fetch methods are called on the audio thread and must not block or
// allocate. Everything else is called from the control context while the
// instance is not processing.
type Effect interface {
	Name() string
	Author() string
	// Category is a free-form category such as "delay" or "synth".
	Category() string

	NumInputs() int
	NumOutputs() int
	// InputName and OutputName return "" when the format has no name.
	InputName(channel int) string
	OutputName(channel int) string

	// MaxSlots is the slot scan bound, at most MaxSlotCapacity.
	MaxSlots() int
	// Slot describes a slot, reporting false when it does not exist.
	Slot(rindex int) (param.Slot, bool)
	// EnumName returns label i of an enumerated slot.
	EnumName(rindex, i int) (string, bool)
	SlotValue(rindex int) float64
	SetSlotValue(rindex int, value float64)

	// Latency is the reported processing delay in seconds. Only valid
	// after Init.
	Latency() float64

	SetSampleRate(rate float64)
	SetBlockSize(frames int)
	Init()

	SetTimeInfo(snap transport.Snapshot)
	Process(in, out [][]float32, frames int)
	SendMidi(msg MidiMessage) bool
	ReceiveMidi() (MidiMessage, bool)
	// FetchChangedSlots and FetchAutomatedSlots return and reset the masks
	// of slots changed by the effect itself since the last call.
	FetchChangedSlots() uint64
	FetchAutomatedSlots() uint64

	SaveState() ([]byte, bool)
	// LoadState applies a blob completely or not at all.
	LoadState(blob []byte) bool

	Close() error
}

// ProgramProvider is implemented by effects that expose programs.
type ProgramProvider interface {
	ProgramCount() int
	ProgramName(index int) string
	// SetProgram is called on the audio thread for MIDI program changes.
	SetProgram(index int)
}

// Format creates and compiles effects of one plugin format.
type Format interface {
	// Name is the key used in search path configuration, e.g. "jsfx".
	Name() string
	// Extensions lists the file extensions Scan recognizes, with dot.
	Extensions() []string
	// Load parses the file at path. root is the directory imports resolve
	// against.
	Load(path, root string) (Effect, error)
	Compile(e Effect, flags CompileFlags) error
}
