// Package gain provides amplitude conversions and the volume stage of a
// plugin's post-processing.
package gain

import (
	"math"
)

// MinDB is the level reported for silence.
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return math.Max(20*math.Log10(linear), MinDB)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// ApplyBuffer multiplies a buffer by a gain in place.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// ApplyChannels multiplies the first frames of every channel by gain.
func ApplyChannels(channels [][]float32, frames int, gain float32) {
	for _, ch := range channels {
		ApplyBuffer(ch[:frames], gain)
	}
}
