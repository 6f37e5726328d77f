// Package pan implements the host balance control: the MIDI balance
// controller law and the balance stage of a plugin's post-processing.
package pan

// Balance limits. Left -1 and right 1 leave the signal untouched.
const (
	BalanceMin = -1.0
	BalanceMax = 1.0
)

// BalanceFromNormalized converts a normalized MIDI balance controller value
// to left and right balance. Below center only the right side moves, above
// center only the left side moves, and exact center yields the full
// -1/+1 spread.
func BalanceFromNormalized(normalized float64) (left, right float64) {
	v := normalized*2 - 1

	switch {
	case v < 0:
		return BalanceMin, v
	case v > 0:
		return v, BalanceMax
	default:
		return BalanceMin, BalanceMax
	}
}

// IsNeutral reports whether a balance pair leaves the signal untouched.
func IsNeutral(left, right float32) bool {
	return left == BalanceMin && right == BalanceMax
}

// Balance redistributes a stereo pair in place. oldLeft must hold at least
// len(left) samples of scratch space.
func Balance(left, right []float32, balanceLeft, balanceRight float32, oldLeft []float32) {
	n := min(len(left), len(right), len(oldLeft))
	copy(oldLeft[:n], left[:n])

	rangeL := (balanceLeft + 1) / 2
	rangeR := (balanceRight + 1) / 2

	for i := 0; i < n; i++ {
		left[i] = oldLeft[i]*(1-rangeL) + right[i]*(1-rangeR)
		right[i] = right[i]*rangeR + oldLeft[i]*rangeL
	}
}

// BalanceChannels applies Balance to every channel pair.
func BalanceChannels(out [][]float32, frames int, balanceLeft, balanceRight float32, scratch []float32) {
	for c := 0; c+1 < len(out); c += 2 {
		Balance(out[c][:frames], out[c+1][:frames], balanceLeft, balanceRight, scratch[:frames])
	}
}
