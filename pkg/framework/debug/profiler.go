package debug

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler accumulates timing statistics for named sections. It takes a
// mutex and must not be used from the audio thread; use LoadMeter there.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// Average returns the mean time of the section.
func (m *Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// NewProfiler creates an enabled profiler.
func NewProfiler() *Profiler {
	p := &Profiler{
		measurements: make(map[string]*Measurement),
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Start begins timing a named section and returns the function that ends it.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one timing to a section.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.measurements[name]
	if !ok {
		m = &Measurement{Name: name, Min: elapsed, Max: elapsed}
		p.measurements[name] = m
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	m.Min = min(m.Min, elapsed)
	m.Max = max(m.Max, elapsed)
}

// Measurement returns a copy of a section's statistics.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.measurements[name]
	if !ok {
		return Measurement{}, false
	}
	return *m, true
}

// Measurements returns copies of all sections ordered by name.
func (p *Profiler) Measurements() []Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Measurement, 0, len(p.measurements))
	for _, m := range p.measurements {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report renders the statistics of every section.
func (p *Profiler) Report() string {
	ms := p.Measurements()
	if len(ms) == 0 {
		return "No measurements recorded"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	for _, m := range ms {
		fmt.Fprintf(&sb, "%s: count=%d avg=%v min=%v max=%v last=%v\n",
			m.Name, m.Count, m.Average(), m.Min, m.Max, m.Last)
	}
	return sb.String()
}

// LoadMeter tracks how much of each block's time budget was spent
// processing. All methods are lock-free and safe on the audio thread.
type LoadMeter struct {
	last atomic.Uint64 // float64 bits, percent
	peak atomic.Uint64
}

// Update records the time one block of frames took at sampleRate.
func (l *LoadMeter) Update(elapsed time.Duration, frames int, sampleRate float64) {
	if frames <= 0 || sampleRate <= 0 {
		return
	}

	budget := float64(frames) / sampleRate * float64(time.Second)
	load := float64(elapsed) / budget * 100

	l.last.Store(math.Float64bits(load))
	for {
		old := l.peak.Load()
		if load <= math.Float64frombits(old) {
			break
		}
		if l.peak.CompareAndSwap(old, math.Float64bits(load)) {
			break
		}
	}
}

// Load returns the load of the last block in percent.
func (l *LoadMeter) Load() float64 {
	return math.Float64frombits(l.last.Load())
}

// Peak returns the highest load seen since the last reset in percent.
func (l *LoadMeter) Peak() float64 {
	return math.Float64frombits(l.peak.Load())
}

// ResetPeak clears the peak.
func (l *LoadMeter) ResetPeak() {
	l.peak.Store(0)
}
