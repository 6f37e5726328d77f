// Package param provides the host-side parameter model of a loaded plugin.
//
// A Model is rebuilt from scratch every time a plugin is reloaded. Between
// reloads only the value of a parameter changes, and that value is owned by
// the plugin format, never cached here.
package param

import "math"

// Type is the direction of a parameter.
type Type uint8

const (
	// TypeInput is a parameter the host may write.
	TypeInput Type = iota
	// TypeOutput is a parameter only the plugin writes.
	TypeOutput
)

// Hints describes how a parameter may be displayed and controlled.
type Hints uint32

// Parameter hints
const (
	IsEnabled         Hints = 1 << 0
	IsInteger         Hints = 1 << 1
	UsesScalePoints   Hints = 1 << 2
	UsesCustomText    Hints = 1 << 3
	IsAutomatable     Hints = 1 << 4
	CanBeCVControlled Hints = 1 << 5
	IsBoolean         Hints = 1 << 6
	IsLogarithmic     Hints = 1 << 7
)

// Has reports whether all bits of flag are set.
func (h Hints) Has(flag Hints) bool {
	return h&flag == flag
}

// ControlIndexNone marks a parameter without a MIDI control binding.
const ControlIndexNone int16 = -1

// Range holds the plain value range and stepping of a parameter
type Range struct {
	Min       float64
	Max       float64
	Def       float64
	Step      float64
	StepSmall float64
	StepLarge float64
}

// Fixed clamps value into the range.
func (r Range) Fixed(value float64) float64 {
	if value <= r.Min {
		return r.Min
	}
	if value >= r.Max {
		return r.Max
	}
	return value
}

// Normalize converts a plain value to 0-1.
func (r Range) Normalize(value float64) float64 {
	if r.Max <= r.Min {
		return 0
	}
	normalized := (value - r.Min) / (r.Max - r.Min)
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Unnormalize converts a 0-1 value to the plain range.
func (r Range) Unnormalize(normalized float64) float64 {
	if normalized <= 0 {
		return r.Min
	}
	if normalized >= 1 {
		return r.Max
	}
	return r.Min + normalized*(r.Max-r.Min)
}

// Parameter is one host-visible parameter.
type Parameter struct {
	// ID is the compact host-facing index.
	ID int32
	// RIndex is the format-internal slot index.
	RIndex int32
	Name   string
	Type   Type
	Hints  Hints
	Range  Range

	// ScalePoints is the number of enumeration labels when the
	// UsesScalePoints hint is set.
	ScalePoints int

	// Optional automation binding: a control change on MidiChannel with
	// controller MappedControlIndex drives this parameter.
	MidiChannel        uint8
	MappedControlIndex int16
}

// FinalUnnormalizedValue maps a normalized automation value to the value
// that is written to the plugin, honoring boolean and integer hints.
func (p *Parameter) FinalUnnormalizedValue(normalized float64) float64 {
	if p.Hints.Has(IsBoolean) {
		if normalized < 0.5 {
			return p.Range.Min
		}
		return p.Range.Max
	}

	value := p.Range.Unnormalize(normalized)
	if p.Hints.Has(IsInteger) {
		value = math.Round(value)
	}
	return value
}

// IsAutomatableInput reports whether control events may drive the parameter.
func (p *Parameter) IsAutomatableInput() bool {
	return p.Type == TypeInput && p.Hints.Has(IsAutomatable)
}
