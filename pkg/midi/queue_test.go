package midi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contendedLocker fails every TryLock while busy is set.
type contendedLocker struct {
	sync.Mutex
	busy bool
}

func (c *contendedLocker) TryLock() bool {
	if c.busy {
		return false
	}
	return c.Mutex.TryLock()
}

func TestExternalNoteMessage(t *testing.T) {
	assert.Equal(t, [3]byte{0x93, 60, 100}, ExternalNote{Channel: 3, Note: 60, Velocity: 100}.Message())
	assert.Equal(t, [3]byte{0x8F, 60, 0}, ExternalNote{Channel: 15, Note: 60}.Message())
}

func TestNoteQueuePushValidation(t *testing.T) {
	q := NewNoteQueue(4)

	assert.ErrorIs(t, q.Push(ExternalNote{Channel: -1, Note: 60}), ErrInvalidNote)
	assert.ErrorIs(t, q.Push(ExternalNote{Channel: 16, Note: 60}), ErrInvalidNote)
	assert.ErrorIs(t, q.Push(ExternalNote{Channel: 0, Note: 128}), ErrInvalidNote)
	assert.ErrorIs(t, q.Push(ExternalNote{Channel: 0, Note: 1, Velocity: 200}), ErrInvalidNote)
	assert.Equal(t, 0, q.Len())
}

func TestNoteQueueFull(t *testing.T) {
	q := NewNoteQueue(2)

	require.NoError(t, q.Push(ExternalNote{Note: 1, Velocity: 1}))
	require.NoError(t, q.Push(ExternalNote{Note: 2, Velocity: 1}))
	assert.ErrorIs(t, q.Push(ExternalNote{Note: 3, Velocity: 1}), ErrQueueFull)
}

func TestNoteQueueDrain(t *testing.T) {
	q := NewNoteQueue(8)
	require.NoError(t, q.Push(ExternalNote{Channel: 0, Note: 60, Velocity: 90}))
	require.NoError(t, q.Push(ExternalNote{Channel: 1, Note: 62, Velocity: 0}))

	first, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint8(60), first.Note)

	var got []ExternalNote
	require.True(t, q.TryDrain(func(n ExternalNote) { got = append(got, n) }))
	require.Len(t, got, 2)
	assert.Equal(t, uint8(62), got[1].Note)
	assert.Equal(t, 0, q.Len())

	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestNoteQueueContentionKeepsNotes(t *testing.T) {
	locker := &contendedLocker{}
	q := NewNoteQueue(8, WithLocker(locker))
	require.NoError(t, q.Push(ExternalNote{Channel: 2, Note: 64, Velocity: 80}))

	locker.busy = true
	called := false
	assert.False(t, q.TryDrain(func(ExternalNote) { called = true }))
	assert.False(t, called)
	assert.Equal(t, 1, q.Len())

	locker.busy = false
	var drained int
	assert.True(t, q.TryDrain(func(ExternalNote) { drained++ }))
	assert.Equal(t, 1, drained)
}

func TestNoteQueueConcurrentPush(t *testing.T) {
	q := NewNoteQueue(DefaultBufferCapacity)

	var wg sync.WaitGroup
	for ch := 0; ch < 4; ch++ {
		wg.Add(1)
		go func(ch int8) {
			defer wg.Done()
			for n := uint8(0); n < 50; n++ {
				_ = q.Push(ExternalNote{Channel: ch, Note: n, Velocity: 64})
			}
		}(int8(ch))
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			q.TryDrain(func(ExternalNote) { total++ })
			assert.Equal(t, 200, total)
			return
		default:
			q.TryDrain(func(ExternalNote) { total++ })
		}
	}
}

func TestEventQueuePushValidation(t *testing.T) {
	q := NewEventQueue(4)

	assert.ErrorIs(t, q.PushControl(16, ControlParameter, 7, 0.5), ErrInvalidEvent)
	assert.ErrorIs(t, q.PushControl(0, ControlNull, 7, 0.5), ErrInvalidEvent)
	assert.ErrorIs(t, q.PushControl(0, ControlParameter, 7, 1.5), ErrInvalidEvent)
	assert.ErrorIs(t, q.PushMidi(0, nil), ErrInvalidEvent)
	assert.ErrorIs(t, q.PushMidi(0, []byte{0xF0, 1, 2, 3, 0xF7}), ErrInvalidEvent)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueueDrainInto(t *testing.T) {
	q := NewEventQueue(8)
	require.NoError(t, q.PushControl(1, ControlParameter, uint16(CCVolume), 1))
	require.NoError(t, q.PushMidi(2, []byte{0xE3, 0, 64}))

	dst := NewEventBuffer(8)
	require.True(t, q.TryDrainInto(dst))
	require.Equal(t, 2, dst.Len())
	assert.Equal(t, 0, q.Len())

	ctrl := dst.At(0)
	assert.Equal(t, EventTypeControl, ctrl.Type)
	assert.Equal(t, uint8(1), ctrl.Channel)
	assert.Equal(t, uint16(CCVolume), ctrl.Ctrl.Param)

	raw := dst.At(1)
	assert.Equal(t, EventTypeMidi, raw.Type)
	assert.Equal(t, uint8(2), raw.Midi.Port)
	assert.Equal(t, uint8(3), raw.Channel)
	assert.Equal(t, []byte{0xE3, 0, 64}, raw.Midi.Bytes())
}

func TestEventQueueKeepsOverflow(t *testing.T) {
	q := NewEventQueue(8)
	for n := uint16(0); n < 3; n++ {
		require.NoError(t, q.PushControl(0, ControlParameter, n, 0))
	}

	dst := NewEventBuffer(2)
	require.True(t, q.TryDrainInto(dst))
	assert.Equal(t, 2, dst.Len())
	require.Equal(t, 1, q.Len())

	dst.Clear()
	require.True(t, q.TryDrainInto(dst))
	require.Equal(t, 1, dst.Len())
	assert.Equal(t, uint16(2), dst.At(0).Ctrl.Param)
}

func TestEventQueueFullAndContended(t *testing.T) {
	locker := &contendedLocker{}
	q := NewEventQueue(1, WithEventLocker(locker))
	require.NoError(t, q.PushMidi(0, []byte{0x90, 60, 100}))
	assert.ErrorIs(t, q.PushMidi(0, []byte{0x80, 60, 0}), ErrQueueFull)

	dst := NewEventBuffer(4)
	locker.busy = true
	assert.False(t, q.TryDrainInto(dst))
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 1, q.Len())

	locker.busy = false
	assert.True(t, q.TryDrainInto(dst))
	assert.Equal(t, 1, dst.Len())
}

func TestEventQueueConcurrentPush(t *testing.T) {
	q := NewEventQueue(DefaultBufferCapacity)
	dst := NewEventBuffer(DefaultBufferCapacity)

	var wg sync.WaitGroup
	for ch := uint8(0); ch < 4; ch++ {
		wg.Add(1)
		go func(ch uint8) {
			defer wg.Done()
			for v := uint8(0); v < 50; v++ {
				_ = q.PushMidi(0, []byte{StatusControlChange | ch, CCVolume, v})
			}
		}(ch)
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			q.TryDrainInto(dst)
			total += dst.Len()
			assert.Equal(t, 200, total)
			return
		default:
			q.TryDrainInto(dst)
			total += dst.Len()
			dst.Clear()
		}
	}
}
