package analysis

import (
	"testing"

	"github.com/justyntemme/plughost/pkg/dsp/gain"
)

func TestPeakMeter(t *testing.T) {
	pm := NewPeakMeter()
	if pm.PeakDB() != gain.MinDB {
		t.Errorf("empty meter should report MinDB, got %v", pm.PeakDB())
	}

	pm.Process([]float32{0.1, -0.5, 0.25})
	pm.Process([]float32{1.5, 0})

	if pm.Peak() != 1.5 {
		t.Errorf("expected peak 1.5, got %v", pm.Peak())
	}
	if pm.Clipped() != 1 {
		t.Errorf("expected 1 clipped sample, got %d", pm.Clipped())
	}
	if pm.Samples() != 5 {
		t.Errorf("expected 5 samples, got %d", pm.Samples())
	}

	pm.Reset()
	if pm.Peak() != 0 || pm.Clipped() != 0 || pm.Samples() != 0 {
		t.Error("Reset did not clear the meter")
	}
}
