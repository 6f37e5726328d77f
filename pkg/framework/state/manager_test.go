package state

import (
	"errors"
	"strings"
	"testing"
)

// memSource stores a comma separated list and applies blobs element by
// element, leaving partial state behind when an element is invalid.
type memSource struct {
	values  []string
	refuse  bool
	applied int
}

func (m *memSource) SaveState() ([]byte, bool) {
	if m.refuse {
		return nil, false
	}
	return []byte(strings.Join(m.values, ",")), true
}

func (m *memSource) LoadState(blob []byte) bool {
	m.applied++
	parts := strings.Split(string(blob), ",")
	for i, p := range parts {
		if p == "bad" {
			return false
		}
		if i < len(m.values) {
			m.values[i] = p
		}
	}
	return true
}

func TestSaveAndLoad(t *testing.T) {
	src := &memSource{values: []string{"1", "2", "3"}}
	m := NewManager(src, func() bool { return true })

	blob, err := m.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if string(blob) != "1,2,3" {
		t.Errorf("unexpected blob %q", blob)
	}

	if err := m.Load([]byte("4,5,6")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if strings.Join(src.values, ",") != "4,5,6" {
		t.Errorf("state not applied: %v", src.values)
	}

	if err := m.Load(blob); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	again, _ := m.Save()
	if string(again) != string(blob) {
		t.Errorf("round trip mismatch: %q != %q", again, blob)
	}
}

func TestRefusedWhenDisabled(t *testing.T) {
	src := &memSource{values: []string{"1"}}
	m := NewManager(src, func() bool { return false })

	if _, err := m.Save(); !errors.Is(err, ErrStateRefused) {
		t.Errorf("expected ErrStateRefused, got %v", err)
	}
	if err := m.Load([]byte("2")); !errors.Is(err, ErrStateRefused) {
		t.Errorf("expected ErrStateRefused, got %v", err)
	}
	if src.applied != 0 {
		t.Error("disabled manager reached the format")
	}
}

func TestSaveUnavailable(t *testing.T) {
	m := NewManager(&memSource{refuse: true}, nil)

	blob, err := m.Save()
	if !errors.Is(err, ErrStateUnavailable) || !errors.Is(err, ErrState) {
		t.Errorf("expected ErrStateUnavailable, got %v", err)
	}
	if len(blob) != 0 {
		t.Error("refused save should return an empty blob")
	}
}

func TestLoadIsAllOrNothing(t *testing.T) {
	src := &memSource{values: []string{"1", "2", "3"}}
	m := NewManager(src, nil)

	err := m.Load([]byte("7,8,bad"))
	if !errors.Is(err, ErrStateInvalid) {
		t.Fatalf("expected ErrStateInvalid, got %v", err)
	}
	if got := strings.Join(src.values, ","); got != "1,2,3" {
		t.Errorf("partial state left behind: %s", got)
	}

	if err := m.Load(nil); !errors.Is(err, ErrStateInvalid) {
		t.Errorf("expected ErrStateInvalid for empty blob, got %v", err)
	}
}
