package engine

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/plughost/pkg/framework/transport"
)

// Transport is the engine's authoritative time source. Control callers
// change it; the audio thread reads it once per block and advances it.
type Transport struct {
	playing     atomic.Bool
	frame       atomic.Uint64
	bpm         atomic.Uint64 // float64 bits
	beatsPerBar atomic.Uint32
	beatType    atomic.Uint32
}

func newTransport() *Transport {
	t := &Transport{}
	t.bpm.Store(math.Float64bits(transport.DefaultTempo))
	t.beatsPerBar.Store(transport.DefaultBeatsPerBar)
	t.beatType.Store(transport.DefaultBeatType)
	return t
}

// Play starts the transport.
func (t *Transport) Play() { t.playing.Store(true) }

// Pause stops the transport at its current position.
func (t *Transport) Pause() { t.playing.Store(false) }

// Playing reports whether the transport runs.
func (t *Transport) Playing() bool { return t.playing.Load() }

// Locate moves to an absolute frame.
func (t *Transport) Locate(frame uint64) { t.frame.Store(frame) }

// Frame returns the current frame.
func (t *Transport) Frame() uint64 { return t.frame.Load() }

// SetTempo sets the tempo in BPM. Non-positive values are ignored.
func (t *Transport) SetTempo(bpm float64) {
	if bpm > 0 {
		t.bpm.Store(math.Float64bits(bpm))
	}
}

// Tempo returns the tempo in BPM.
func (t *Transport) Tempo() float64 {
	return math.Float64frombits(t.bpm.Load())
}

// SetTimeSignature sets the time signature. Zero values are ignored.
func (t *Transport) SetTimeSignature(beatsPerBar, beatType uint32) {
	if beatsPerBar == 0 || beatType == 0 {
		return
	}
	t.beatsPerBar.Store(beatsPerBar)
	t.beatType.Store(beatType)
}

// Info returns the time information for the block starting now.
func (t *Transport) Info(sampleRate float64) transport.TimeInfo {
	frame := t.frame.Load()

	var usecs uint64
	if sampleRate > 0 {
		usecs = uint64(float64(frame) * 1e6 / sampleRate)
	}

	return transport.TimeInfo{
		Playing: t.playing.Load(),
		Usecs:   usecs,
		Frame:   frame,
		BBT: transport.BBT{
			Valid:          true,
			BeatsPerMinute: t.Tempo(),
			BeatsPerBar:    float64(t.beatsPerBar.Load()),
			BeatType:       float64(t.beatType.Load()),
		},
	}
}

// advance moves a playing transport forward by one block.
func (t *Transport) advance(frames int) {
	if t.playing.Load() && frames > 0 {
		t.frame.Add(uint64(frames))
	}
}
