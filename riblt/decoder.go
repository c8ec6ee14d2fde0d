package riblt

// Decoder recovers the symmetric difference between a remote set and a
// local set from a stream of coded symbols. It consumes the remote peer's
// coded symbols in stream order. Symbols of the local set are declared with
// AddSymbol and are subtracted from incoming coded symbols on receipt, so
// the local set never needs its own materialised sketch. The decoder may
// equally be fed pre-subtracted cells (see Sketch.Subtract) with no local
// symbols declared.
//
// All local symbols must be added before the first coded symbol.
type Decoder[T Symbol[T]] struct {
	// cs holds the residual cells: the received coded symbols with every
	// known contribution peeled off. Decoding is complete when all of them
	// are empty.
	cs []CodedSymbol[T]
	// local accumulates recovered symbols present only in the local set;
	// remote accumulates those present only in the remote set. window holds
	// the symbols of the local set declared by the caller. All three track
	// mapping state so that their contributions can be peeled from cells
	// that arrive later.
	local  codingWindow[T]
	window codingWindow[T]
	remote codingWindow[T]
	// decodable queues indices of cells whose count has entered peeling
	// range. Entries may be stale and are re-validated when visited.
	decodable []int
	// numEmpty tracks how many cells of cs are empty so that Decoded is a
	// comparison rather than a scan.
	numEmpty int
}

// AddSymbol declares a symbol of the local set.
func (d *Decoder[T]) AddSymbol(s T) {
	d.window.addSymbol(s)
}

// AddHashedSymbol declares a symbol of the local set whose hash is already
// known.
func (d *Decoder[T]) AddHashedSymbol(s HashedSymbol[T]) {
	d.window.addHashedSymbol(s)
}

// AddCodedSymbol gives the next coded symbol in the remote peer's stream to
// the decoder.
func (d *Decoder[T]) AddCodedSymbol(c CodedSymbol[T]) {
	// Peel off everything already known to touch this cell: the local set,
	// and the symbols recovered so far.
	c = d.window.applyWindow(c, remove)
	c = d.remote.applyWindow(c, remove)
	c = d.local.applyWindow(c, add)
	d.cs = append(d.cs, c)
	if c.IsEmpty() {
		d.numEmpty += 1
	} else if c.Count >= -1 && c.Count <= 1 {
		d.decodable = append(d.decodable, len(d.cs)-1)
	}
}

// applyNewSymbol peels a freshly recovered symbol from every materialised
// cell it participates in, and returns the mapping state pointing at the
// first index beyond the materialised prefix.
func (d *Decoder[T]) applyNewSymbol(t HashedSymbol[T], direction int64) randomMapping {
	m := randomMapping{t.Hash, 0}
	for int(m.lastIdx) < len(d.cs) {
		cidx := int(m.lastIdx)
		wasEmpty := d.cs[cidx].IsEmpty()
		d.cs[cidx] = d.cs[cidx].apply(t, direction)
		if d.cs[cidx].IsEmpty() {
			if !wasEmpty {
				d.numEmpty += 1
			}
		} else {
			if wasEmpty {
				d.numEmpty -= 1
			}
			if d.cs[cidx].Count >= -1 && d.cs[cidx].Count <= 1 {
				d.decodable = append(d.decodable, cidx)
			}
		}
		m.nextIndex()
	}
	return m
}

// TryDecode drains the queue of peelable cells. Recovering a symbol may
// make further cells peelable; those are processed in the same call.
func (d *Decoder[T]) TryDecode() {
	for didx := 0; didx < len(d.decodable); didx += 1 {
		cidx := d.decodable[didx]
		c := d.cs[cidx]
		switch c.Count {
		case 1:
			// A pure cell with count 1 holds a symbol missing from the
			// local set. The hash comparison below is the purity test; a
			// cell that merely looks pure because of a hash collision
			// corrupts its siblings when peeled, which Decoded catches
			// because the residual cannot reach all-empty.
			if c.Hash == c.Symbol.Hash() {
				// Copy the symbol out of the cell: peeling XORs through the
				// cell, which would also clear a symbol sharing its buffer.
				var zero T
				ns := HashedSymbol[T]{zero.XOR(c.Symbol), c.Hash}
				m := d.applyNewSymbol(ns, remove)
				d.remote.addHashedSymbolWithMapping(ns, m)
			}
		case -1:
			if c.Hash == c.Symbol.Hash() {
				var zero T
				ns := HashedSymbol[T]{zero.XOR(c.Symbol), c.Hash}
				m := d.applyNewSymbol(ns, add)
				d.local.addHashedSymbolWithMapping(ns, m)
			}
		}
	}
	d.decodable = d.decodable[:0]
}

// Remote returns the symbols recovered so far that are present only in the
// remote set. The result is provisional until Decoded reports true.
func (d *Decoder[T]) Remote() []HashedSymbol[T] {
	return d.remote.symbols
}

// Local returns the symbols recovered so far that are present only in the
// local set. The result is provisional until Decoded reports true.
func (d *Decoder[T]) Local() []HashedSymbol[T] {
	return d.local.symbols
}

// Decoded reports whether every received coded symbol has been fully
// accounted for. This is the signal to stop requesting coded symbols; until
// it reports true, the recovered symbols may be incomplete or, after a hash
// collision, wrong.
func (d *Decoder[T]) Decoded() bool {
	return d.numEmpty == len(d.cs)
}

// Reset clears the decoder for reuse.
func (d *Decoder[T]) Reset() {
	if len(d.cs) != 0 {
		d.cs = d.cs[:0]
	}
	if len(d.decodable) != 0 {
		d.decodable = d.decodable[:0]
	}
	d.local.reset()
	d.remote.reset()
	d.window.reset()
	d.numEmpty = 0
}
