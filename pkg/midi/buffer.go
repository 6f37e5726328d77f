package midi

// MaxEventSize is the largest MIDI message an event port accepts.
const MaxEventSize = 0xFF

// DefaultBufferCapacity is the number of events a port holds per block.
const DefaultBufferCapacity = 512

// EventBuffer is a fixed-capacity, time-ordered list of events for one
// block. It never grows after construction.
type EventBuffer struct {
	events []Event
	count  int
}

// NewEventBuffer creates a buffer holding up to capacity events.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &EventBuffer{
		events: make([]Event, capacity),
	}
}

// Len returns the number of events in the buffer.
func (b *EventBuffer) Len() int {
	return b.count
}

// Cap returns the capacity of the buffer.
func (b *EventBuffer) Cap() int {
	return len(b.events)
}

// At returns event i. The pointer is valid until the buffer is cleared.
func (b *EventBuffer) At(i int) *Event {
	if i < 0 || i >= b.count {
		return nil
	}
	return &b.events[i]
}

// Clear removes all events.
func (b *EventBuffer) Clear() {
	b.count = 0
}

// Put inserts an event keeping the buffer ordered by time. Events with equal
// times keep their insertion order. Returns false when the buffer is full.
func (b *EventBuffer) Put(e Event) bool {
	if b.count >= len(b.events) {
		return false
	}

	i := b.count
	for i > 0 && b.events[i-1].Time > e.Time {
		b.events[i] = b.events[i-1]
		i--
	}
	b.events[i] = e
	b.count++
	return true
}

// WriteControl appends a control event.
func (b *EventBuffer) WriteControl(time uint32, channel uint8, ctype ControlType, param uint16, normalized float64) bool {
	return b.Put(Event{
		Type:    EventTypeControl,
		Time:    time,
		Channel: channel,
		Ctrl: ControlEvent{
			Type:            ctype,
			Param:           param,
			NormalizedValue: normalized,
		},
	})
}

// WriteMidi appends a raw MIDI event. The channel is taken from the status
// byte of channel voice messages. Empty or oversized messages are rejected.
func (b *EventBuffer) WriteMidi(time uint32, port uint8, data []byte) bool {
	size := len(data)
	if size == 0 || size > MaxEventSize {
		return false
	}

	e := Event{
		Type:    EventTypeMidi,
		Time:    time,
		Channel: Channel(data),
		Midi: MidiEvent{
			Port: port,
			Size: uint8(size),
		},
	}
	if size <= MidiDataSize {
		copy(e.Midi.Data[:], data)
	} else {
		e.Midi.Ext = data
	}
	return b.Put(e)
}
