package riblt

// Sketch is the unmanaged codec: a coded-symbol prefix of fixed length with
// no attached source set. A Sketch is obtained by detaching an Encoder, by
// deserialising coded symbols received from a peer, or by combining or
// subtracting two sketches.
//
// Symbols added or removed after construction only touch the cells that
// already exist; a Sketch does not extend lazily.
type Sketch[T Symbol[T]] []CodedSymbol[T]

// AddHashedSymbol maps t into every cell of s that t participates in.
func (s Sketch[T]) AddHashedSymbol(t HashedSymbol[T]) {
	s.applyHashedSymbol(t, add)
}

// RemoveHashedSymbol unmaps t from every cell of s that t participates in.
// Removing a symbol that was never added records it with count -1, which is
// how one side of a difference is represented.
func (s Sketch[T]) RemoveHashedSymbol(t HashedSymbol[T]) {
	s.applyHashedSymbol(t, remove)
}

// AddSymbol hashes t and adds it to s.
func (s Sketch[T]) AddSymbol(t T) {
	s.applyHashedSymbol(HashedSymbol[T]{t, t.Hash()}, add)
}

// RemoveSymbol hashes t and removes it from s.
func (s Sketch[T]) RemoveSymbol(t T) {
	s.applyHashedSymbol(HashedSymbol[T]{t, t.Hash()}, remove)
}

func (s Sketch[T]) applyHashedSymbol(t HashedSymbol[T], direction int64) {
	m := randomMapping{t.Hash, 0}
	for int(m.lastIdx) < len(s) {
		idx := m.lastIdx
		s[idx] = s[idx].apply(t, direction)
		m.nextIndex()
	}
}

// Combine adds s2 into s componentwise and returns the result. When the
// lengths differ, the result is truncated to the shorter of the two. The
// receiver is modified in place.
func (s Sketch[T]) Combine(s2 Sketch[T]) Sketch[T] {
	n := len(s)
	if len(s2) < n {
		n = len(s2)
	}
	for i := 0; i < n; i++ {
		s[i] = s[i].combine(s2[i], add)
	}
	return s[:n]
}

// Subtract subtracts s2 from s componentwise and returns the result. When s
// covers set A and s2 covers set B, the result covers the symmetric
// difference of A and B: decoding it yields the elements only in A with
// count sign +1 and the elements only in B with count sign -1. When the
// lengths differ, the result is truncated to the shorter of the two. The
// receiver is modified in place.
func (s Sketch[T]) Subtract(s2 Sketch[T]) Sketch[T] {
	n := len(s)
	if len(s2) < n {
		n = len(s2)
	}
	for i := 0; i < n; i++ {
		s[i] = s[i].combine(s2[i], remove)
	}
	return s[:n]
}

// Empty reports whether every cell of s is empty.
func (s Sketch[T]) Empty() bool {
	for _, c := range s {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Decode peels s and returns the recovered symbols. fwd holds the symbols
// with count sign +1 (only in the left operand of a subtraction), rev those
// with sign -1. succeeded reports whether the peeling consumed every cell;
// when it is false the prefix was too short (or a cell was corrupted) and
// the recovered symbols are provisional. The cells of s are left in place,
// but peeling XORs through the symbol sums, so for symbol types with
// pointer receivers s must be treated as consumed.
func (s Sketch[T]) Decode() (fwd []HashedSymbol[T], rev []HashedSymbol[T], succeeded bool) {
	dec := Decoder[T]{}
	for _, c := range s {
		dec.AddCodedSymbol(c)
	}
	dec.TryDecode()
	return dec.Remote(), dec.Local(), dec.Decoded()
}
