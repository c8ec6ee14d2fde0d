package riblt

// Symbol is the interface that set elements must implement.
type Symbol[T any] interface {
	// XOR returns the XOR result of the method receiver and t2. It is allowed
	// to modify the method receiver during the operation. When the method
	// receiver is the default value of T, the result is t2. XOR must be
	// commutative, associative, and self-inverting, i.e., x.XOR(x) is the
	// default value of T for any x.
	XOR(t2 T) T
	// Hash returns a 64-bit hash of the method receiver. It is guaranteed not
	// to modify the method receiver. It must not be homomorphic over XOR:
	// the probability that a.XOR(b).Hash() equals a.Hash()^b.Hash() must be
	// negligible.
	Hash() uint64
	comparable
}

// HashedSymbol is a symbol bundled with its hash.
type HashedSymbol[T Symbol[T]] struct {
	Symbol T
	Hash   uint64
}

// NewHashedSymbol hashes s and bundles the result with s.
func NewHashedSymbol[T Symbol[T]](s T) HashedSymbol[T] {
	return HashedSymbol[T]{s, s.Hash()}
}
