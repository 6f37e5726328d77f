// Package port provides the audio and event port table of a plugin instance.
package port

import (
	"strconv"
	"unicode/utf8"
)

// Kind represents the type of a port
type Kind int32

const (
	// KindAudio represents an audio port
	KindAudio Kind = 0
	// KindEvent represents an event/MIDI port
	KindEvent Kind = 1
)

// Direction represents the port direction
type Direction int32

const (
	// DirectionInput represents an input port
	DirectionInput Direction = 0
	// DirectionOutput represents an output port
	DirectionOutput Direction = 1
)

// Port describes one registered port.
type Port struct {
	Index     int
	Direction Direction
	Kind      Kind
	RIndex    int
	Name      string
}

// NamePolicy controls how port names are produced.
type NamePolicy struct {
	// Prefix is prepended as "Prefix:" when non-empty. Engines running all
	// plugins in a single client set it to the plugin name.
	Prefix string
	// MaxSize truncates names, in bytes. Zero disables truncation.
	MaxSize int
}

// AudioName returns the name of audio channel index out of count channels.
// A name supplied by the format wins; otherwise a single channel is called
// base and multiple channels are numbered from 1.
func (np NamePolicy) AudioName(base, formatName string, index, count int) string {
	var name string
	switch {
	case formatName != "":
		name = formatName
	case count > 1:
		name = base + "_" + strconv.Itoa(index+1)
	default:
		name = base
	}
	return np.Name(name)
}

// Name applies the prefix and truncation to name.
func (np NamePolicy) Name(name string) string {
	if np.Prefix != "" {
		name = np.Prefix + ":" + name
	}
	if np.MaxSize > 0 && len(name) > np.MaxSize {
		// cut on a rune boundary
		n := np.MaxSize
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = name[:n]
	}
	return name
}

// Table holds the ports created at (re)load time, keyed by index within
// their kind and direction.
type Table struct {
	audioIn  []Port
	audioOut []Port
	eventIn  *Port
	eventOut *Port
}

// Count returns the number of ports of a kind and direction.
func (t *Table) Count(kind Kind, direction Direction) int {
	if kind == KindEvent {
		p := t.eventIn
		if direction == DirectionOutput {
			p = t.eventOut
		}
		if p == nil {
			return 0
		}
		return 1
	}
	if direction == DirectionOutput {
		return len(t.audioOut)
	}
	return len(t.audioIn)
}

// Get returns a port by kind, direction and index.
func (t *Table) Get(kind Kind, direction Direction, index int) (Port, bool) {
	if kind == KindEvent {
		if index != 0 {
			return Port{}, false
		}
		p := t.eventIn
		if direction == DirectionOutput {
			p = t.eventOut
		}
		if p == nil {
			return Port{}, false
		}
		return *p, true
	}

	ports := t.audioIn
	if direction == DirectionOutput {
		ports = t.audioOut
	}
	if index < 0 || index >= len(ports) {
		return Port{}, false
	}
	return ports[index], true
}

// AudioIns returns the audio input ports in order.
func (t *Table) AudioIns() []Port {
	return append([]Port(nil), t.audioIn...)
}

// AudioOuts returns the audio output ports in order.
func (t *Table) AudioOuts() []Port {
	return append([]Port(nil), t.audioOut...)
}

// HasEventIn reports whether the table has an event input port.
func (t *Table) HasEventIn() bool {
	return t.eventIn != nil
}

// HasEventOut reports whether the table has an event output port.
func (t *Table) HasEventOut() bool {
	return t.eventOut != nil
}

// Names returns every port name, audio first, inputs before outputs.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.audioIn)+len(t.audioOut)+2)
	for _, p := range t.audioIn {
		names = append(names, p.Name)
	}
	for _, p := range t.audioOut {
		names = append(names, p.Name)
	}
	if t.eventIn != nil {
		names = append(names, t.eventIn.Name)
	}
	if t.eventOut != nil {
		names = append(names, t.eventOut.Name)
	}
	return names
}
