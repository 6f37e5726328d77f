// Package state implements all-or-nothing persistence of a plugin's
// complete internal state as one opaque blob.
package state

import (
	"errors"
	"fmt"
)

var (
	// ErrState is the root of all state errors.
	ErrState = errors.New("state error")
	// ErrStateRefused is returned when full-state persistence is disabled
	// for the instance.
	ErrStateRefused = fmt.Errorf("%w: state persistence is disabled", ErrState)
	// ErrStateUnavailable is returned when the format produced no state.
	ErrStateUnavailable = fmt.Errorf("%w: format returned no state", ErrState)
	// ErrStateInvalid is returned when the format rejected a blob.
	ErrStateInvalid = fmt.Errorf("%w: format rejected state", ErrState)
)

// Source is the format side of state persistence.
type Source interface {
	SaveState() ([]byte, bool)
	LoadState(blob []byte) bool
}

// Manager saves and restores state blobs for one instance.
type Manager struct {
	source  Source
	enabled func() bool
}

// NewManager creates a state manager. enabled is consulted on every call
// and gates both directions.
func NewManager(source Source, enabled func() bool) *Manager {
	return &Manager{
		source:  source,
		enabled: enabled,
	}
}

// Save returns the current state blob.
func (m *Manager) Save() ([]byte, error) {
	if m.enabled != nil && !m.enabled() {
		return nil, ErrStateRefused
	}

	blob, ok := m.source.SaveState()
	if !ok || len(blob) == 0 {
		return nil, ErrStateUnavailable
	}

	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Load applies a state blob. When the format rejects it, the state captured
// before the attempt is restored so a failed load never leaves a partial
// state behind.
func (m *Manager) Load(blob []byte) error {
	if m.enabled != nil && !m.enabled() {
		return ErrStateRefused
	}
	if len(blob) == 0 {
		return fmt.Errorf("%w: empty blob", ErrStateInvalid)
	}

	previous, hasPrevious := m.source.SaveState()

	if !m.source.LoadState(blob) {
		if hasPrevious && len(previous) > 0 {
			m.source.LoadState(previous)
		}
		return ErrStateInvalid
	}
	return nil
}
