// Package midi provides the engine-level event model shared by the engine,
// plugin instances and drivers.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Channel voice status bytes
const (
	StatusNoteOff         uint8 = 0x80
	StatusNoteOn          uint8 = 0x90
	StatusPolyAftertouch  uint8 = 0xA0
	StatusControlChange   uint8 = 0xB0
	StatusProgramChange   uint8 = 0xC0
	StatusChannelPressure uint8 = 0xD0
	StatusPitchBend       uint8 = 0xE0
)

const (
	// ChannelMask extracts the channel from a status byte.
	ChannelMask uint8 = 0x0F
	// MaxChannels is the number of MIDI channels.
	MaxChannels = 16
	// MaxValue bounds 7-bit data bytes.
	MaxValue = 128
	// NonMidiChannel marks control events that address a parameter
	// directly rather than through a MIDI channel.
	NonMidiChannel uint8 = 0x10
)

// Control change numbers
const (
	CCBankSelect     uint8 = 0
	CCModWheel       uint8 = 1
	CCBreath         uint8 = 2
	CCFoot           uint8 = 4
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCBalance        uint8 = 8
	CCPan            uint8 = 10
	CCExpression     uint8 = 11
	CCBankSelectLSB  uint8 = 32
	CCSustain        uint8 = 64
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCLocalControl   uint8 = 122
	CCAllNotesOff    uint8 = 123
)

// Status returns the status of a message with the channel bits removed for
// channel voice messages.
func Status(data []byte) uint8 {
	if len(data) == 0 {
		return 0
	}
	if data[0] < 0xF0 {
		return data[0] & 0xF0
	}
	return data[0]
}

// Channel returns the channel of a channel voice message.
func Channel(data []byte) uint8 {
	if len(data) == 0 {
		return 0
	}
	return data[0] & ChannelMask
}

// EventType is the kind of an engine event.
type EventType uint8

const (
	EventTypeNull EventType = iota
	EventTypeControl
	EventTypeMidi
)

// ControlType is the kind of a control event.
type ControlType uint8

const (
	ControlNull ControlType = iota
	ControlParameter
	ControlMidiBank
	ControlMidiProgram
	ControlAllSoundOff
	ControlAllNotesOff
)

func (c ControlType) String() string {
	switch c {
	case ControlParameter:
		return "Parameter"
	case ControlMidiBank:
		return "MidiBank"
	case ControlMidiProgram:
		return "MidiProgram"
	case ControlAllSoundOff:
		return "AllSoundOff"
	case ControlAllNotesOff:
		return "AllNotesOff"
	default:
		return "Null"
	}
}

// ControlEvent is a host-level control message.
type ControlEvent struct {
	Type ControlType
	// Param is a controller number, a parameter id for NonMidiChannel
	// events, or a program index.
	Param           uint16
	NormalizedValue float64
	// Handled is set once the host consumed the event.
	Handled bool
}

// MidiDataSize is the number of bytes stored inline in a MidiEvent.
const MidiDataSize = 4

// MidiEvent is a raw MIDI message. Messages up to MidiDataSize bytes are
// stored inline; longer ones reference Ext, which is only valid for the
// block the event belongs to.
type MidiEvent struct {
	Port uint8
	Size uint8
	Data [MidiDataSize]byte
	Ext  []byte
}

// Bytes returns the message bytes.
func (m *MidiEvent) Bytes() []byte {
	if int(m.Size) > MidiDataSize {
		return m.Ext
	}
	return m.Data[:m.Size]
}

// Event is one timestamped engine event within a block.
type Event struct {
	Type    EventType
	Time    uint32 // frame offset within the block
	Channel uint8
	Ctrl    ControlEvent
	Midi    MidiEvent
}

func (e *Event) String() string {
	switch e.Type {
	case EventTypeControl:
		return fmt.Sprintf("Control{%s ch:%d param:%d val:%.3f time:%d}",
			e.Ctrl.Type, e.Channel, e.Ctrl.Param, e.Ctrl.NormalizedValue, e.Time)
	case EventTypeMidi:
		return fmt.Sprintf("Midi{%s time:%d}", gomidi.Message(e.Midi.Bytes()).String(), e.Time)
	default:
		return fmt.Sprintf("Null{time:%d}", e.Time)
	}
}

// EventFromMidi converts an incoming message into an engine event. Bank
// select, all-sound-off, all-notes-off, other controllers and program
// changes become control events carrying the MIDI value normalized to
// [0,1]; everything else stays raw MIDI on port. data must be at most
// MidiDataSize bytes.
func EventFromMidi(port uint8, data []byte) Event {
	msg := gomidi.Message(data)
	var channel, control, value uint8

	switch {
	case msg.GetControlChange(&channel, &control, &value):
		ev := Event{Type: EventTypeControl, Channel: channel}
		ev.Ctrl.NormalizedValue = float64(value) / 127
		switch control {
		case CCBankSelect:
			ev.Ctrl.Type = ControlMidiBank
			ev.Ctrl.Param = uint16(value)
		case CCAllSoundOff:
			ev.Ctrl = ControlEvent{Type: ControlAllSoundOff}
		case CCAllNotesOff:
			ev.Ctrl = ControlEvent{Type: ControlAllNotesOff}
		default:
			ev.Ctrl.Type = ControlParameter
			ev.Ctrl.Param = uint16(control)
		}
		return ev

	case msg.GetProgramChange(&channel, &value):
		return Event{
			Type:    EventTypeControl,
			Channel: channel,
			Ctrl: ControlEvent{
				Type:            ControlMidiProgram,
				Param:           uint16(value),
				NormalizedValue: float64(value) / 127,
			},
		}
	}

	ev := Event{
		Type:    EventTypeMidi,
		Channel: Channel(data),
		Midi:    MidiEvent{Port: port, Size: uint8(len(data))},
	}
	copy(ev.Midi.Data[:], data)
	return ev
}
