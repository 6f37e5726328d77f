package pan

import (
	"testing"
)

func TestBalanceFromNormalized(t *testing.T) {
	tests := []struct {
		name        string
		normalized  float64
		left, right float64
	}{
		{"right of center", 0.75, 0.5, 1.0},
		{"left of center", 0.25, -1.0, -0.5},
		{"center", 0.5, -1.0, 1.0},
		{"hard left", 0, -1.0, -1.0},
		{"hard right", 1, 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := BalanceFromNormalized(tt.normalized)
			if l != tt.left || r != tt.right {
				t.Errorf("BalanceFromNormalized(%v) = %v, %v; want %v, %v", tt.normalized, l, r, tt.left, tt.right)
			}
		})
	}
}

func TestBalanceNeutralIsIdentity(t *testing.T) {
	left := []float32{0.1, 0.2}
	right := []float32{-0.3, 0.4}
	scratch := make([]float32, 2)

	Balance(left, right, -1, 1, scratch)

	if left[0] != 0.1 || left[1] != 0.2 || right[0] != -0.3 || right[1] != 0.4 {
		t.Errorf("neutral balance changed the signal: %v %v", left, right)
	}
	if !IsNeutral(-1, 1) || IsNeutral(0, 1) {
		t.Error("IsNeutral mismatch")
	}
}

func TestBalanceHardLeft(t *testing.T) {
	out := [][]float32{{1, 1}, {0.5, 0.5}}
	scratch := make([]float32, 4)

	// both sides fully left: everything ends up in the left channel
	BalanceChannels(out, 2, -1, -1, scratch)

	if out[0][0] != 1.5 || out[1][0] != 0 {
		t.Errorf("unexpected hard left result: %v", out)
	}
}
