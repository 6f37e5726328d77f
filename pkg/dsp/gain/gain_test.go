package gain

import (
	"math"
	"testing"
)

func TestDbConversions(t *testing.T) {
	if got := LinearToDb(1); got != 0 {
		t.Errorf("LinearToDb(1) = %v", got)
	}
	if got := LinearToDb(0); got != MinDB {
		t.Errorf("LinearToDb(0) = %v", got)
	}
	if got := DbToLinear(MinDB); got != 0 {
		t.Errorf("DbToLinear(MinDB) = %v", got)
	}
	if got := DbToLinear(-6.0206); math.Abs(got-0.5) > 1e-4 {
		t.Errorf("DbToLinear(-6.02) = %v", got)
	}
}

func TestApplyChannels(t *testing.T) {
	chans := [][]float32{{1, 1, 1}, {-2, -2, -2}}
	ApplyChannels(chans, 2, 0.5)

	if chans[0][0] != 0.5 || chans[1][1] != -1 {
		t.Errorf("gain not applied: %v", chans)
	}
	if chans[0][2] != 1 {
		t.Error("gain applied past frames")
	}
}
