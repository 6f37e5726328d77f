package analysis

import (
	"math"
	"sync"

	"github.com/justyntemme/plughost/pkg/dsp/gain"
)

// PeakMeter tracks the absolute peak of a channel and the number of
// samples that went over full scale.
type PeakMeter struct {
	mu      sync.Mutex
	peak    float64
	clipped int
	samples int
}

// NewPeakMeter creates a new peak meter
func NewPeakMeter() *PeakMeter {
	return &PeakMeter{}
}

// Process updates the meter with a block of samples.
func (pm *PeakMeter) Process(samples []float32) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, s := range samples {
		a := math.Abs(float64(s))
		if a > pm.peak {
			pm.peak = a
		}
		if a > 1 {
			pm.clipped++
		}
	}
	pm.samples += len(samples)
}

// Peak returns the peak level (linear)
func (pm *PeakMeter) Peak() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.peak
}

// PeakDB returns the peak level in decibels
func (pm *PeakMeter) PeakDB() float64 {
	return gain.LinearToDb(pm.Peak())
}

// Clipped returns the number of samples above full scale.
func (pm *PeakMeter) Clipped() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.clipped
}

// Samples returns the number of samples metered.
func (pm *PeakMeter) Samples() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.samples
}

// Reset clears the meter.
func (pm *PeakMeter) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peak = 0
	pm.clipped = 0
	pm.samples = 0
}
