package embedder

// meanPool averages the hidden states of one sequence over positions whose
// attention mask is 1. hidden is flat [seqLen * dim].
func meanPool(hidden []float32, mask []int64, seqLen, dim int64) []float32 {
	out := make([]float32, dim)

	var count float32
	for s := int64(0); s < seqLen; s++ {
		if mask[s] != 1 {
			continue
		}
		count++
		row := hidden[s*dim : (s+1)*dim]
		for d, v := range row {
			out[d] += v
		}
	}
	if count == 0 {
		return out
	}

	inv := 1 / count
	for d := range out {
		out[d] *= inv
	}
	return out
}
