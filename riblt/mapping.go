package riblt

import (
	"math"
)

// randomMapping generates the indices of the coded symbols that a source
// symbol participates in. The generated sequence is deterministic given the
// seed (the hash of the source symbol), starts at index 0, and is
// increasing. Peers must run byte-identical sequences for the same seed, so
// both the PRNG and the gap formula below are frozen.
type randomMapping struct {
	prng    uint64 // PRNG state, seeded with the hash of the source symbol
	lastIdx uint64 // the last index the symbol was mapped to
}

// nextIndex returns the next index the symbol is mapped to. The gap to the
// previous index is chosen so that the probability of participating in coded
// symbol i is proportional to 1/(1+i/2), giving coded symbol i an expected
// degree of about n/(1+i/2) over n source symbols.
func (m *randomMapping) nextIndex() uint64 {
	// Multiplicative congruential generator. The full 64-bit state is used
	// as the uniform draw below, so the low-bit weakness of an MCG does not
	// matter here.
	m.prng = m.prng * 0xda942042e4dd58b5
	r := m.prng
	// lastIdx += ceil((lastIdx+1.5)*(2^32/sqrt(r+1)-1))
	m.lastIdx += uint64(math.Ceil((float64(m.lastIdx) + 1.5) * (float64(1<<32)/math.Sqrt(float64(r)+1) - 1)))
	return m.lastIdx
}
