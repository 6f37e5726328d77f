package plugin

import (
	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/dsp/pan"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/midi"
)

// outArenaSize bounds the bytes of long output messages kept per block.
const outArenaSize = 8192

// Router moves one block's events between the engine event ports and the
// format effect. It belongs to a single Instance and only runs inside its
// Process call.
type Router struct {
	inst *Instance

	// message under construction, handed to the effect by reference
	scratch [midi.MaxEventSize]byte

	// backing store for output messages longer than midi.MidiDataSize
	arena [outArenaSize]byte
	used  int

	sendNote func(midi.ExternalNote)
}

func newRouter(inst *Instance) *Router {
	r := &Router{inst: inst}
	r.sendNote = r.sendExternalNote
	return r
}

func (r *Router) send(bus, offset uint32, size int) {
	r.inst.effect.SendMidi(adapter.MidiMessage{
		Bus:    bus,
		Offset: offset,
		Data:   r.scratch[:size],
	})
}

func (r *Router) sendExternalNote(n midi.ExternalNote) {
	msg := n.Message()
	copy(r.scratch[:], msg[:])
	r.send(0, 0, len(msg))
}

// RouteInput feeds the external note queue and the event input port into
// the effect. Events at or past frames are stale and skipped.
func (r *Router) RouteInput(frames int) {
	inst := r.inst

	// on contention the notes stay queued for the next block
	inst.extNotes.TryDrain(r.sendNote)

	allNotesOffSent := false
	for k := 0; k < inst.eventIn.Len(); k++ {
		ev := inst.eventIn.At(k)
		if int(ev.Time) >= frames {
			continue
		}

		switch ev.Type {
		case midi.EventTypeControl:
			r.routeControl(ev, &allNotesOffSent)
		case midi.EventTypeMidi:
			r.routeMidi(ev)
		}
	}

	inst.postRT.trySplice()
}

func (r *Router) routeControl(ev *midi.Event, allNotesOffSent *bool) {
	inst := r.inst
	ctrl := &ev.Ctrl
	options := inst.Options()
	onCtrlChannel := int32(ev.Channel) == inst.ctrlChannel.Load()
	channelBits := ev.Channel & midi.ChannelMask

	switch ctrl.Type {
	case midi.ControlParameter:
		if ev.Channel == midi.NonMidiChannel {
			p, ok := inst.params.Get(int32(ctrl.Param))
			if !ok {
				return
			}
			ctrl.Handled = true
			inst.SetValueRT(p.ID, p.FinalUnnormalizedValue(ctrl.NormalizedValue), true)
			return
		}

		if onCtrlChannel {
			r.routeHostControl(ctrl)
		}

		for id := int32(0); id < int32(inst.params.Count()); id++ {
			p, _ := inst.params.Get(id)
			if p.MidiChannel != ev.Channel || p.MappedControlIndex != int16(ctrl.Param) {
				continue
			}
			if !p.IsAutomatableInput() {
				continue
			}
			ctrl.Handled = true
			inst.SetValueRT(id, p.FinalUnnormalizedValue(ctrl.NormalizedValue), true)
		}

		if options.Has(OptionSendControlChanges) && ctrl.Param < midi.MaxValue {
			r.scratch[0] = midi.StatusControlChange | channelBits
			r.scratch[1] = uint8(ctrl.Param)
			r.scratch[2] = midiValue(ctrl.NormalizedValue)
			r.send(0, ev.Time, 3)
		}

	case midi.ControlMidiBank:
		if options.Has(OptionSendProgramChanges) {
			r.scratch[0] = midi.StatusControlChange | channelBits
			r.scratch[1] = midi.CCBankSelect
			r.scratch[2] = 0
			r.send(0, ev.Time, 3)

			r.scratch[1] = midi.CCBankSelectLSB
			r.scratch[2] = midiValue(ctrl.NormalizedValue)
			r.send(0, ev.Time, 3)
		}

	case midi.ControlMidiProgram:
		if onCtrlChannel && options.Has(OptionMapProgramChanges) {
			if int(ctrl.Param) < inst.ProgramCount() {
				inst.SetProgramRT(int32(ctrl.Param), true)
			}
		} else if options.Has(OptionSendProgramChanges) {
			r.scratch[0] = midi.StatusProgramChange | channelBits
			r.scratch[1] = midiValue(ctrl.NormalizedValue)
			r.send(0, ev.Time, 2)
		}

	case midi.ControlAllSoundOff:
		if options.Has(OptionSendAllSoundOff) {
			r.scratch[0] = midi.StatusControlChange | channelBits
			r.scratch[1] = midi.CCAllSoundOff
			r.scratch[2] = 0
			r.send(0, ev.Time, 3)
		}

	case midi.ControlAllNotesOff:
		if options.Has(OptionSendAllSoundOff) {
			if onCtrlChannel && !*allNotesOffSent {
				*allNotesOffSent = true
				inst.postRT.appendRT(Notification{Kind: NotifyAllNotesOff, Index: -1, Channel: ev.Channel})
			}

			r.scratch[0] = midi.StatusControlChange | channelBits
			r.scratch[1] = midi.CCAllNotesOff
			r.scratch[2] = 0
			r.send(0, ev.Time, 3)
		}
	}
}

// routeHostControl applies the reserved controllers of the control
// channel.
func (r *Router) routeHostControl(ctrl *midi.ControlEvent) {
	inst := r.inst

	switch {
	case ctrl.Param == uint16(midi.CCBreath) && inst.hints.Has(HintCanDryWet):
		ctrl.Handled = true
		inst.SetDryWetRT(ctrl.NormalizedValue, true)

	case ctrl.Param == uint16(midi.CCVolume) && inst.hints.Has(HintCanVolume):
		ctrl.Handled = true
		inst.SetVolumeRT(ctrl.NormalizedValue*127/100, true)

	case ctrl.Param == uint16(midi.CCBalance) && inst.hints.Has(HintCanBalance):
		left, right := pan.BalanceFromNormalized(ctrl.NormalizedValue)
		ctrl.Handled = true
		inst.SetBalanceLeftRT(left, true)
		inst.SetBalanceRightRT(right, true)
	}
}

func (r *Router) routeMidi(ev *midi.Event) {
	inst := r.inst
	data := ev.Midi.Bytes()
	if len(data) == 0 {
		return
	}

	options := inst.Options()
	status := midi.Status(data)

	switch status {
	case midi.StatusNoteOff, midi.StatusNoteOn:
		if options.Has(OptionSkipSendingNotes) {
			return
		}
	case midi.StatusChannelPressure:
		if !options.Has(OptionSendChannelPressure) {
			return
		}
	case midi.StatusControlChange:
		if !options.Has(OptionSendControlChanges) {
			return
		}
	case midi.StatusPolyAftertouch:
		if !options.Has(OptionSendNoteAftertouch) {
			return
		}
	case midi.StatusPitchBend:
		if !options.Has(OptionSendPitchbend) {
			return
		}
	}

	if status == midi.StatusNoteOn && len(data) > 2 && data[2] == 0 {
		status = midi.StatusNoteOff
	}

	n := copy(r.scratch[:], data)
	if status < 0xF0 {
		r.scratch[0] = status | (ev.Channel & midi.ChannelMask)
	}
	r.send(uint32(ev.Midi.Port), ev.Time, n)

	if len(data) < 3 {
		return
	}
	switch status {
	case midi.StatusNoteOn:
		inst.postRT.appendRT(Notification{
			Kind:     NotifyNoteOn,
			Index:    -1,
			Channel:  ev.Channel,
			Note:     data[1],
			Velocity: data[2],
		})
	case midi.StatusNoteOff:
		inst.postRT.appendRT(Notification{
			Kind:    NotifyNoteOff,
			Index:   -1,
			Channel: ev.Channel,
			Note:    data[1],
		})
	}
}

// DrainOutput forwards the effect's MIDI output to the event output port
// and publishes slots the effect changed itself.
//
// An event at or past frames, or an empty one, ends the MIDI drain for the
// block. Oversized events are skipped.
func (r *Router) DrainOutput(frames int) {
	inst := r.inst
	r.used = 0

	for {
		msg, ok := inst.effect.ReceiveMidi()
		if !ok {
			break
		}
		if int(msg.Offset) >= frames || len(msg.Data) == 0 {
			break
		}
		if len(msg.Data) > midi.MaxEventSize {
			continue
		}
		if !r.writeOutput(msg) {
			break
		}
	}

	mask := inst.effect.FetchChangedSlots() | inst.effect.FetchAutomatedSlots()
	if mask == 0 {
		return
	}
	for rindex := 0; rindex < inst.params.MaxSlots(); rindex++ {
		if mask&(uint64(1)<<rindex) == 0 {
			continue
		}
		id := inst.params.ParameterForSlot(rindex)
		if id == param.NoParameter {
			continue
		}
		inst.SetValueRT(id, inst.effect.SlotValue(rindex), true)
	}
}

func (r *Router) writeOutput(msg adapter.MidiMessage) bool {
	data := msg.Data
	if len(data) > midi.MidiDataSize {
		if r.used+len(data) > len(r.arena) {
			return false
		}
		n := copy(r.arena[r.used:], data)
		data = r.arena[r.used : r.used+n]
		r.used += n
	}
	return r.inst.eventOut.WriteMidi(msg.Offset, uint8(msg.Bus), data)
}

// midiValue maps a normalized value back to a 7-bit MIDI value.
func midiValue(n float64) uint8 {
	return uint8(roundHalfUp(max(0, min(1, n)) * 127))
}
