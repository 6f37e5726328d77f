package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReset(t *testing.T) {
	b := NewBridge(48000)
	assert.Equal(t, Snapshot{TempoBPM: 120, TimeSigNumerator: 4, TimeSigDenominator: 4}, b.Current())

	b.Update(TimeInfo{Playing: true, Usecs: 5_000_000, Frame: 96000, BBT: BBT{Valid: true, BeatsPerMinute: 90, BeatsPerBar: 3, BeatType: 8}})
	b.Reset()
	assert.False(t, b.Current().Playing)
	assert.Equal(t, 120.0, b.Current().TempoBPM)
	assert.Zero(t, b.Current().BeatPosition)
}

func TestUpdateWithBBT(t *testing.T) {
	b := NewBridge(48000)

	snap := b.Update(TimeInfo{
		Playing: true,
		Usecs:   2_500_000,
		Frame:   48000,
		BBT:     BBT{Valid: true, BeatsPerMinute: 120, BeatsPerBar: 7, BeatType: 8},
	})

	assert.True(t, snap.Playing)
	assert.InDelta(t, 2.5, snap.TimePositionSeconds, 1e-12)
	assert.Equal(t, 120.0, snap.TempoBPM)
	// one second at 120 BPM is two beats
	assert.InDelta(t, 2.0, snap.BeatPosition, 1e-12)
	assert.Equal(t, uint32(7), snap.TimeSigNumerator)
	assert.Equal(t, uint32(8), snap.TimeSigDenominator)
}

func TestUpdateWithoutBBTKeepsPrevious(t *testing.T) {
	b := NewBridge(44100)
	b.Update(TimeInfo{Playing: true, Frame: 44100, BBT: BBT{Valid: true, BeatsPerMinute: 60, BeatsPerBar: 3, BeatType: 4}})

	snap := b.Update(TimeInfo{Playing: false, Usecs: 1_000_000, Frame: 88200})

	assert.False(t, snap.Playing)
	assert.InDelta(t, 1.0, snap.TimePositionSeconds, 1e-12)
	assert.Equal(t, 60.0, snap.TempoBPM)
	assert.InDelta(t, 1.0, snap.BeatPosition, 1e-12)
	assert.Equal(t, uint32(3), snap.TimeSigNumerator)
}
