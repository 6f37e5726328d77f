// Package mix provides the dry/wet stage of a plugin's post-processing.
package mix

// DryWet performs a dry/wet mix between two samples.
// amount: 0.0 = 100% dry, 1.0 = 100% wet
func DryWet(dry, wet, amount float32) float32 {
	return wet*amount + dry*(1-amount)
}

// DryWetBuffer mixes dry into wet in place over the shorter length.
func DryWetBuffer(dry, wet []float32, amount float32) {
	n := min(len(dry), len(wet))
	for i := 0; i < n; i++ {
		wet[i] = DryWet(dry[i], wet[i], amount)
	}
}

// DryWetChannels mixes the plugin inputs back into its outputs. A mono
// input feeds every output; otherwise output channel c takes input c.
// Outputs without a matching input are left as they are.
func DryWetChannels(in, out [][]float32, frames int, amount float32) {
	if len(in) == 0 {
		return
	}
	for c := range out {
		src := 0
		if len(in) > 1 {
			if c >= len(in) {
				continue
			}
			src = c
		}
		DryWetBuffer(in[src][:frames], out[c][:frames], amount)
	}
}
