package plugin

import (
	"sync"
	"sync/atomic"
)

// NotificationKind identifies what a Notification reports.
type NotificationKind uint8

const (
	NotifyParameterValue NotificationKind = iota
	NotifyDryWet
	NotifyVolume
	NotifyBalanceLeft
	NotifyBalanceRight
	NotifyProgram
	NotifyNoteOn
	NotifyNoteOff
	NotifyAllNotesOff
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyParameterValue:
		return "parameter"
	case NotifyDryWet:
		return "dry-wet"
	case NotifyVolume:
		return "volume"
	case NotifyBalanceLeft:
		return "balance-left"
	case NotifyBalanceRight:
		return "balance-right"
	case NotifyProgram:
		return "program"
	case NotifyNoteOn:
		return "note-on"
	case NotifyNoteOff:
		return "note-off"
	case NotifyAllNotesOff:
		return "all-notes-off"
	default:
		return "unknown"
	}
}

// Notification reports a change made by the instance to the control
// context.
type Notification struct {
	Kind     NotificationKind
	Index    int32 // parameter id or program index
	Value    float64
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Listener receives notifications in the control context.
type Listener func(Notification)

// notificationCapacity bounds both halves of the post-RT queue.
const notificationCapacity = 512

// postRtQueue carries notifications out of the audio thread. The audio
// thread appends to pending, which it owns, and moves pending into shared
// with a non-blocking lock attempt. The control context drains shared.
type postRtQueue struct {
	pending  [notificationCapacity]Notification
	npending int

	mu      TryLocker
	shared  [notificationCapacity]Notification
	nshared int

	// drain copies shared here before calling out, so callbacks run
	// without the lock held
	scratch [notificationCapacity]Notification

	dropped atomic.Uint64
}

func newPostRtQueue() *postRtQueue {
	return &postRtQueue{mu: &sync.Mutex{}}
}

// appendRT queues a notification from the audio thread. It fails when the
// pending half is full.
func (q *postRtQueue) appendRT(n Notification) bool {
	if q.npending == len(q.pending) {
		q.dropped.Add(1)
		return false
	}
	q.pending[q.npending] = n
	q.npending++
	return true
}

// trySplice moves pending notifications into the shared half. On
// contention, or when shared is full, the rest stay pending.
func (q *postRtQueue) trySplice() bool {
	if q.npending == 0 {
		return true
	}
	if !q.mu.TryLock() {
		return false
	}
	defer q.mu.Unlock()

	n := copy(q.shared[q.nshared:], q.pending[:q.npending])
	q.nshared += n
	q.npending = copy(q.pending[:], q.pending[n:q.npending])
	return q.npending == 0
}

// drain hands every shared notification to fn in order.
func (q *postRtQueue) drain(fn func(Notification)) int {
	q.mu.Lock()
	n := copy(q.scratch[:], q.shared[:q.nshared])
	q.nshared = 0
	q.mu.Unlock()

	for i := 0; i < n; i++ {
		fn(q.scratch[i])
	}
	return n
}

// clear drops everything. Only valid while the audio thread is quiesced.
func (q *postRtQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.npending = 0
	q.nshared = 0
}
