// Package oscillator generates test signals fed through plugins.
package oscillator

import "math"

// Sine generates a sine tone.
type Sine struct {
	sampleRate float64
	frequency  float64
	amplitude  float32
	phase      float64
	phaseInc   float64
}

// NewSine creates a full-scale 440 Hz tone.
func NewSine(sampleRate float64) *Sine {
	s := &Sine{sampleRate: sampleRate, amplitude: 1}
	s.SetFrequency(440)
	return s
}

// SetFrequency sets the tone frequency in Hz.
func (s *Sine) SetFrequency(freq float64) {
	s.frequency = freq
	if s.sampleRate > 0 {
		s.phaseInc = freq / s.sampleRate
	}
}

// SetAmplitude sets the linear peak amplitude.
func (s *Sine) SetAmplitude(amp float32) {
	s.amplitude = amp
}

// Reset resets the oscillator phase to 0
func (s *Sine) Reset() {
	s.phase = 0
}

// Next returns the next sample.
func (s *Sine) Next() float32 {
	v := s.amplitude * float32(math.Sin(2*math.Pi*s.phase))
	s.phase += s.phaseInc
	if s.phase >= 1 {
		s.phase -= math.Floor(s.phase)
	}
	return v
}

// Fill writes the next len(buf) samples.
func (s *Sine) Fill(buf []float32) {
	for i := range buf {
		buf[i] = s.Next()
	}
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note.
func NoteFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
