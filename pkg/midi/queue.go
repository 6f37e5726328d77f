package midi

import (
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the external note queue has no room.
	ErrQueueFull = errors.New("external note queue is full")
	// ErrInvalidNote is returned for notes outside the MIDI value ranges.
	ErrInvalidNote = errors.New("invalid external note")
	// ErrInvalidEvent is returned for events the audio thread cannot carry.
	ErrInvalidEvent = errors.New("invalid engine event")
)

// ExternalNote is a note queued by a non real-time caller.
type ExternalNote struct {
	Channel  int8
	Note     uint8
	Velocity uint8
}

// Message returns the 3-byte note-on (velocity > 0) or note-off message.
func (n ExternalNote) Message() [3]byte {
	status := StatusNoteOff
	if n.Velocity > 0 {
		status = StatusNoteOn
	}
	return [3]byte{status | (uint8(n.Channel) & ChannelMask), n.Note, n.Velocity}
}

// TryLocker is a mutex that also supports a non-blocking attempt.
type TryLocker interface {
	sync.Locker
	TryLock() bool
}

// QueueOption configures a NoteQueue.
type QueueOption func(*NoteQueue)

// WithLocker replaces the queue mutex.
func WithLocker(l TryLocker) QueueOption {
	return func(q *NoteQueue) {
		q.mu = l
	}
}

// NoteQueue carries external notes from control callers to the audio
// thread. Control callers block on the lock; the audio thread only tries it
// and leaves the queue untouched for the next block when it is contended,
// so notes are delayed but never dropped.
type NoteQueue struct {
	mu    TryLocker
	notes []ExternalNote
}

// NewNoteQueue creates a queue with fixed capacity.
func NewNoteQueue(capacity int, opts ...QueueOption) *NoteQueue {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	q := &NoteQueue{
		mu:    &sync.Mutex{},
		notes: make([]ExternalNote, 0, capacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push queues a note. It may block on a concurrent drain.
func (q *NoteQueue) Push(n ExternalNote) error {
	if n.Channel < 0 || int(n.Channel) >= MaxChannels || n.Note >= MaxValue || n.Velocity >= MaxValue {
		return ErrInvalidNote
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.notes) == cap(q.notes) {
		return ErrQueueFull
	}
	q.notes = append(q.notes, n)
	return nil
}

// TryDrain hands every queued note to fn and empties the queue. It returns
// false without calling fn when the lock is held elsewhere.
func (q *NoteQueue) TryDrain(fn func(ExternalNote)) bool {
	if !q.mu.TryLock() {
		return false
	}
	defer q.mu.Unlock()

	for _, n := range q.notes {
		fn(n)
	}
	q.notes = q.notes[:0]
	return true
}

// Peek returns the oldest queued note, if any.
func (q *NoteQueue) Peek() (ExternalNote, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.notes) == 0 {
		return ExternalNote{}, false
	}
	return q.notes[0], true
}

// Len returns the number of queued notes.
func (q *NoteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notes)
}

// Clear drops all queued notes.
func (q *NoteQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notes = q.notes[:0]
}

// EventQueueOption configures an EventQueue.
type EventQueueOption func(*EventQueue)

// WithEventLocker replaces the event queue mutex.
func WithEventLocker(l TryLocker) EventQueueOption {
	return func(q *EventQueue) {
		q.mu = l
	}
}

// EventQueue carries control and MIDI events from control callers to the
// audio thread with the same locking as NoteQueue. Queued events are
// delivered at the start of the next block that wins the lock.
type EventQueue struct {
	mu     TryLocker
	events []Event
}

// NewEventQueue creates a queue with fixed capacity.
func NewEventQueue(capacity int, opts ...EventQueueOption) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	q := &EventQueue{
		mu:     &sync.Mutex{},
		events: make([]Event, 0, capacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PushControl queues a control event.
func (q *EventQueue) PushControl(channel uint8, ctype ControlType, param uint16, normalized float64) error {
	if channel >= MaxChannels || ctype == ControlNull || normalized < 0 || normalized > 1 {
		return ErrInvalidEvent
	}
	return q.push(Event{
		Type:    EventTypeControl,
		Channel: channel,
		Ctrl: ControlEvent{
			Type:            ctype,
			Param:           param,
			NormalizedValue: normalized,
		},
	})
}

// PushMidi queues a short MIDI message, converted with EventFromMidi.
// Messages longer than MidiDataSize are rejected since the queue does not
// own their storage.
func (q *EventQueue) PushMidi(port uint8, data []byte) error {
	if len(data) == 0 || len(data) > MidiDataSize {
		return ErrInvalidEvent
	}
	return q.push(EventFromMidi(port, data))
}

func (q *EventQueue) push(e Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == cap(q.events) {
		return ErrQueueFull
	}
	q.events = append(q.events, e)
	return nil
}

// TryDrainInto moves queued events into dst at time 0, oldest first. Events
// that do not fit stay queued for the next block. It returns false without
// touching dst when the lock is held elsewhere.
func (q *EventQueue) TryDrainInto(dst *EventBuffer) bool {
	if !q.mu.TryLock() {
		return false
	}
	defer q.mu.Unlock()

	n := 0
	for n < len(q.events) {
		e := q.events[n]
		e.Time = 0
		if !dst.Put(e) {
			break
		}
		n++
	}
	q.events = q.events[:copy(q.events, q.events[n:])]
	return true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Clear drops all queued events.
func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = q.events[:0]
}
