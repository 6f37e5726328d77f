// Package mididev feeds a MIDI input port into the host: notes go to a
// plugin's external note queue, controllers and other channel messages to
// the engine event queue. A gomidi driver must be registered by the
// program, for example with a blank import of the rtmididrv package.
package mididev

import (
	"fmt"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/midi"
)

// NoteSink receives notes. *plugin.Instance implements it.
type NoteSink interface {
	SendMidiNote(channel int8, note, velocity uint8) error
}

// EventSink receives short MIDI messages. *engine.Engine implements it.
type EventSink interface {
	SendMidi(port uint8, data []byte) error
}

// Input listens to one MIDI input port.
type Input struct {
	port   drivers.In
	notes  NoteSink
	events EventSink
	logger *debug.Logger

	stopFunc func()

	received atomic.Uint64
	dropped  atomic.Uint64
}

// Ports returns the names of the available MIDI inputs.
func Ports() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// Open starts listening to the input port called name.
func Open(name string, notes NoteSink, events EventSink, logger *debug.Logger) (*Input, error) {
	port, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("find input %q: %w", name, err)
	}
	return Listen(port, notes, events, logger)
}

// Listen starts listening to port.
func Listen(port drivers.In, notes NoteSink, events EventSink, logger *debug.Logger) (*Input, error) {
	in := New(notes, events, logger)
	in.port = port

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		in.Handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	in.stopFunc = stop

	in.logger.Info("listening to %s", port.String())
	return in, nil
}

// New creates an input that is not attached to a port. Messages are fed
// with Handle. Either sink may be nil.
func New(notes NoteSink, events EventSink, logger *debug.Logger) *Input {
	if logger == nil {
		logger = debug.Discard()
	}
	return &Input{notes: notes, events: events, logger: logger}
}

// Handle forwards notes to the note sink, or to the event sink when there
// is no note sink. Controllers, program changes, pitch bend and pressure go
// to the event sink. It reports whether msg was forwarded.
func (in *Input) Handle(msg gomidi.Message) bool {
	var channel, key, velocity uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
	case msg.GetNoteOff(&channel, &key, &velocity):
		velocity = 0
	default:
		return in.handleEvent(msg)
	}

	if in.notes == nil {
		return in.handleEvent(msg)
	}

	in.received.Add(1)
	if err := in.notes.SendMidiNote(int8(channel), key, velocity); err != nil {
		in.dropped.Add(1)
		in.logger.Debug("dropping %s: %v", msg, err)
	}
	return true
}

func (in *Input) handleEvent(msg gomidi.Message) bool {
	if in.events == nil {
		return false
	}

	switch midi.Status(msg) {
	case midi.StatusNoteOff, midi.StatusNoteOn, midi.StatusPolyAftertouch,
		midi.StatusControlChange, midi.StatusProgramChange,
		midi.StatusChannelPressure, midi.StatusPitchBend:
	default:
		return false
	}

	in.received.Add(1)
	if err := in.events.SendMidi(0, msg); err != nil {
		in.dropped.Add(1)
		in.logger.Debug("dropping %s: %v", msg, err)
	}
	return true
}

// Received returns the number of messages forwarded.
func (in *Input) Received() uint64 { return in.received.Load() }

// Dropped returns the number of messages a sink refused.
func (in *Input) Dropped() uint64 { return in.dropped.Load() }

// Close stops listening.
func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
		in.stopFunc = nil
	}
	return nil
}
