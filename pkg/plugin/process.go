package plugin

import (
	"github.com/justyntemme/plughost/pkg/dsp/gain"
	"github.com/justyntemme/plughost/pkg/dsp/mix"
	"github.com/justyntemme/plughost/pkg/dsp/pan"
	"github.com/justyntemme/plughost/pkg/framework/process"
	"github.com/justyntemme/plughost/pkg/framework/transport"
	"github.com/justyntemme/plughost/pkg/midi"
)

// Process runs one block on the audio thread without engine events.
func (i *Instance) Process(in, out [][]float32, frames int, info transport.TimeInfo) {
	i.ProcessEvents(in, out, frames, info, nil, nil)
}

// ProcessEvents runs one block on the audio thread. It never blocks and
// never fails: when the instance is busy with a structural operation,
// inactive, disabled or its effect panics, the outputs are silent for the
// block.
//
// events are the engine events for this block; they are copied into the
// event input port. When fwd is non-nil and the plugin has an event output,
// fwd is replaced with the block's MIDI output and ProcessEvents reports
// true. Forwarded events are valid until the instance's next block.
func (i *Instance) ProcessEvents(in, out [][]float32, frames int, info transport.TimeInfo, events, fwd *midi.EventBuffer) (forwarded bool) {
	if !i.master.TryLock() {
		process.ClearAll(out)
		return false
	}
	defer i.master.Unlock()
	defer i.eventIn.Clear()

	if events != nil {
		for k := 0; k < events.Len(); k++ {
			if !i.eventIn.Put(*events.At(k)) {
				break
			}
		}
	}

	if i.State() != StateActivated || !i.enabled.Load() {
		process.ClearAll(out)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			i.faults.Add(1)
			process.ClearAll(out)
			forwarded = false
		}
	}()

	i.ctx.Bind(in, out, frames)
	frames = i.ctx.NumSamples()

	for c := range i.audioIn {
		i.audioIn[c] = i.ctx.InputChannel(c)
	}
	for c := range i.audioOut {
		if c < len(out) {
			i.audioOut[c] = out[c][:frames]
		} else {
			i.audioOut[c] = i.spareOut[c][:frames]
		}
	}
	for c := len(i.audioOut); c < len(out); c++ {
		clear(out[c][:frames])
	}

	i.effect.SetTimeInfo(i.bridge.Update(info))
	i.eventOut.Clear()

	i.router.RouteInput(frames)
	i.effect.Process(i.audioIn, i.audioOut, frames)
	i.router.DrainOutput(frames)

	i.postProcess(frames)
	i.postRT.trySplice()

	if fwd == nil || !i.ports.HasEventOut() {
		return false
	}
	fwd.Clear()
	for k := 0; k < i.eventOut.Len(); k++ {
		fwd.Put(*i.eventOut.At(k))
	}
	return true
}

// postProcess applies dry/wet, balance and volume, in that order.
func (i *Instance) postProcess(frames int) {
	if i.hints.Has(HintCanDryWet) {
		if dw := i.dryWet.Load(); dw != 1 {
			mix.DryWetChannels(i.audioIn, i.audioOut, frames, float32(dw))
		}
	}

	if i.hints.Has(HintCanBalance) {
		left, right := float32(i.balanceLeft.Load()), float32(i.balanceRight.Load())
		if !pan.IsNeutral(left, right) {
			pan.BalanceChannels(i.audioOut, frames, left, right, i.ctx.WorkBuffer())
		}
	}

	if i.hints.Has(HintCanVolume) {
		if vol := i.volume.Load(); vol != 1 {
			gain.ApplyChannels(i.audioOut, frames, float32(vol))
		}
	}
}
