// Package transport converts the engine's time information into the
// per-block transport snapshot handed to a plugin.
package transport

// Defaults applied by Reset.
const (
	DefaultTempo       = 120.0
	DefaultBeatsPerBar = 4
	DefaultBeatType    = 4
)

// BBT is the bar/beat/tick part of the engine time.
type BBT struct {
	Valid          bool
	BeatsPerMinute float64
	BeatsPerBar    float64
	BeatType       float64
}

// TimeInfo is the engine's authoritative time for one block.
type TimeInfo struct {
	Playing bool
	Usecs   uint64
	Frame   uint64
	BBT     BBT
}

// Snapshot is the transport state a plugin sees for one block.
type Snapshot struct {
	TempoBPM            float64
	Playing             bool
	TimePositionSeconds float64
	BeatPosition        float64
	TimeSigNumerator    uint32
	TimeSigDenominator  uint32
}

// Bridge caches the last snapshot so fields without valid engine data keep
// their previous values.
type Bridge struct {
	sampleRate float64
	current    Snapshot
}

// NewBridge creates a bridge in the reset state.
func NewBridge(sampleRate float64) *Bridge {
	b := &Bridge{sampleRate: sampleRate}
	b.Reset()
	return b
}

// SetSampleRate updates the rate used for beat positions.
func (b *Bridge) SetSampleRate(sampleRate float64) {
	b.sampleRate = sampleRate
}

// Reset returns to a paused 120 BPM 4/4 transport at position zero.
func (b *Bridge) Reset() {
	b.current = Snapshot{
		TempoBPM:           DefaultTempo,
		TimeSigNumerator:   DefaultBeatsPerBar,
		TimeSigDenominator: DefaultBeatType,
	}
}

// Update folds the engine time for a block into the cached snapshot and
// returns it.
func (b *Bridge) Update(info TimeInfo) Snapshot {
	b.current.Playing = info.Playing
	b.current.TimePositionSeconds = 1e-6 * float64(info.Usecs)

	if info.BBT.Valid && info.BBT.BeatsPerMinute > 0 && b.sampleRate > 0 {
		b.current.TempoBPM = info.BBT.BeatsPerMinute
		b.current.BeatPosition = float64(info.Frame) / (b.sampleRate * 60 / info.BBT.BeatsPerMinute)
		b.current.TimeSigNumerator = uint32(info.BBT.BeatsPerBar)
		b.current.TimeSigDenominator = uint32(info.BBT.BeatType)
	}

	return b.current
}

// Current returns the last snapshot.
func (b *Bridge) Current() Snapshot {
	return b.current
}
