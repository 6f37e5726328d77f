package mix

import (
	"testing"
)

func TestDryWet(t *testing.T) {
	tests := []struct {
		dry, wet, amount, want float32
	}{
		{1, 0, 0, 1},
		{1, 0, 1, 0},
		{1, 0.5, 0.5, 0.75},
	}
	for _, tt := range tests {
		if got := DryWet(tt.dry, tt.wet, tt.amount); got != tt.want {
			t.Errorf("DryWet(%v, %v, %v) = %v, want %v", tt.dry, tt.wet, tt.amount, got, tt.want)
		}
	}
}

func TestDryWetChannelsMonoInput(t *testing.T) {
	in := [][]float32{{1, 1}}
	out := [][]float32{{0, 0}, {0.5, 0.5}}

	DryWetChannels(in, out, 2, 0.5)

	if out[0][0] != 0.5 || out[1][1] != 0.75 {
		t.Errorf("mono input not mixed into every output: %v", out)
	}
}

func TestDryWetChannelsMatching(t *testing.T) {
	in := [][]float32{{1}, {-1}}
	out := [][]float32{{0}, {0}, {0.25}}

	DryWetChannels(in, out, 1, 0)

	if out[0][0] != 1 || out[1][0] != -1 {
		t.Errorf("fully dry mix should copy inputs: %v", out)
	}
	if out[2][0] != 0.25 {
		t.Errorf("unmatched output changed: %v", out[2][0])
	}
}
