// Package lt implements a fixed-rate LT code over set elements. Unlike the
// rateless codec in package riblt, a codeword carries the explicit list of
// its members (as salted short hashes), and the degree of each codeword is
// drawn from a caller-supplied distribution, typically a robust soliton.
// It serves as a baseline to compare the rateless codec against.
package lt

// ItemData is the payload carried by an item.
type ItemData[T any] interface {
	XOR(t2 T) T // XOR is allowed to modify the method receiver
	Equals(t2 T) bool
	Hash() []byte
}

// Item is an ItemData bundled with its digest.
type Item[T ItemData[T]] struct {
	data T
	hash []byte
}

// NewItem digests data and bundles the result with it.
func NewItem[T ItemData[T]](data T) Item[T] {
	return Item[T]{data, data.Hash()}
}

// Data returns the payload.
func (t Item[T]) Data() T {
	return t.data
}

// Hash returns the digest computed when the item was created.
func (t Item[T]) Hash() []byte {
	return t.hash
}
