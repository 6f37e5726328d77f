package plugin

import (
	"fmt"
	"strings"

	"github.com/justyntemme/plughost/pkg/framework/port"
	"github.com/justyntemme/plughost/pkg/midi"
)

// Name returns the unique instance name.
func (i *Instance) Name() string { return i.name }

// Label returns the plugin file id, relative to its root.
func (i *Instance) Label() string { return i.label }

// Filename returns the resolved plugin file.
func (i *Instance) Filename() string { return i.filename }

// Root returns the search path the plugin was resolved under.
func (i *Instance) Root() string { return i.root }

// Format returns the name of the plugin format.
func (i *Instance) Format() string { return i.format.Name() }

// Maker returns the plugin author.
func (i *Instance) Maker() string {
	if i.effect == nil {
		return ""
	}
	return i.effect.Author()
}

// Category returns the plugin category.
func (i *Instance) Category() Category {
	if i.effect == nil {
		return CategoryNone
	}
	return CategoryFromTags(strings.Fields(strings.ToLower(i.effect.Category())))
}

// Ports returns the port table of the last reload.
func (i *Instance) Ports() *port.Table { return i.ports }

// AudioInCount returns the number of audio inputs.
func (i *Instance) AudioInCount() int {
	return i.ports.Count(port.KindAudio, port.DirectionInput)
}

// AudioOutCount returns the number of audio outputs.
func (i *Instance) AudioOutCount() int {
	return i.ports.Count(port.KindAudio, port.DirectionOutput)
}

// EventInCount returns the number of event inputs.
func (i *Instance) EventInCount() int {
	return i.ports.Count(port.KindEvent, port.DirectionInput)
}

// EventOutCount returns the number of event outputs.
func (i *Instance) EventOutCount() int {
	return i.ports.Count(port.KindEvent, port.DirectionOutput)
}

// Latency returns the processing latency in frames.
func (i *Instance) Latency() uint32 { return i.latency.Load() }

// Hints returns the host capabilities of the current channel layout.
func (i *Instance) Hints() Hints { return i.hints }

// Options returns the current option set.
func (i *Instance) Options() Options {
	return Options(i.options.Load())
}

// AvailableOptions returns the options this instance supports.
func (i *Instance) AvailableOptions() Options {
	available := OptionUseChunks |
		OptionSendControlChanges |
		OptionSendChannelPressure |
		OptionSendNoteAftertouch |
		OptionSendPitchbend |
		OptionSendAllSoundOff |
		OptionSendProgramChanges |
		OptionSkipSendingNotes
	if i.ProgramCount() > 0 {
		available |= OptionMapProgramChanges
	}
	return available
}

// SetOption turns options on or off.
func (i *Instance) SetOption(option Options, yes bool) error {
	if option&^i.AvailableOptions() != 0 {
		return fmt.Errorf("%w: %v", ErrOptionUnavailable, (option &^ i.AvailableOptions()).Names())
	}

	for {
		old := i.options.Load()
		next := old | uint32(option)
		if !yes {
			next = old &^ uint32(option)
		}
		if i.options.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// SendMidiNote queues a note for the next block. Velocity 0 is a note-off.
func (i *Instance) SendMidiNote(channel int8, note, velocity uint8) error {
	return i.extNotes.Push(midi.ExternalNote{Channel: channel, Note: note, Velocity: velocity})
}

// PendingNotes returns the number of queued external notes.
func (i *Instance) PendingNotes() int {
	return i.extNotes.Len()
}

// Chunk returns the complete plugin state.
func (i *Instance) Chunk() ([]byte, error) {
	i.master.Lock()
	defer i.master.Unlock()
	return i.chunks.Save()
}

// SetChunk replaces the complete plugin state. A rejected blob leaves the
// previous state in place.
func (i *Instance) SetChunk(blob []byte) error {
	i.master.Lock()
	defer i.master.Unlock()
	return i.chunks.Load(blob)
}

// effectState exposes the instance's effect to the state manager.
type effectState struct {
	inst *Instance
}

func (s effectState) SaveState() ([]byte, bool) {
	if s.inst.effect == nil {
		return nil, false
	}
	return s.inst.effect.SaveState()
}

func (s effectState) LoadState(blob []byte) bool {
	if s.inst.effect == nil {
		return false
	}
	return s.inst.effect.LoadState(blob)
}
