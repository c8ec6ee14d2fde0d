package lt

import (
	"hash"
	"math/rand"

	"github.com/dchest/siphash"
)

// SaltSize is the size of the key shared by an encoder/decoder pair to salt
// the short hashes that identify codeword members.
const SaltSize = 16

// Codeword is the XOR of a set of items together with the salted short
// hashes identifying them.
type Codeword[T ItemData[T]] struct {
	symbol  T
	members []uint32
}

// DegreeDistribution samples codeword degrees. The soliton distributions
// satisfy this interface.
type DegreeDistribution interface {
	Uint64() uint64
}

type saltedItem[T ItemData[T]] struct {
	saltedHash uint32
	Item[T]
}

// Encoder produces LT codewords over a sliding window of items.
type Encoder[T ItemData[T]] struct {
	r          *rand.Rand
	window     []saltedItem[T]
	hasher     hash.Hash64
	degreeDist DegreeDistribution
	hashes     map[uint32]struct{} // items already in the window
	windowSize int

	shuffleHistory []int
}

// NewEncoder creates an encoder keyed with salt. Codeword degrees are drawn
// from dist, and the window keeps at most ws items, evicting the oldest.
func NewEncoder[T ItemData[T]](r *rand.Rand, salt [SaltSize]byte, dist DegreeDistribution, ws int) *Encoder[T] {
	return &Encoder[T]{
		r:          r,
		hasher:     siphash.New(salt[:]),
		degreeDist: dist,
		windowSize: ws,
		hashes:     make(map[uint32]struct{}),
	}
}

// Reset empties the window and installs a new degree distribution and window
// size.
func (e *Encoder[T]) Reset(dist DegreeDistribution, ws int) {
	e.degreeDist = dist
	e.window = e.window[:0]
	e.windowSize = ws
	for k := range e.hashes {
		delete(e.hashes, k)
	}
}

// AddItem inserts t into the coding window. It reports false when an item
// with the same salted hash is already present.
func (e *Encoder[T]) AddItem(t Item[T]) bool {
	e.hasher.Reset()
	e.hasher.Write(t.hash[:])
	h := (uint32)(e.hasher.Sum64())
	if _, there := e.hashes[h]; there {
		return false
	}
	e.window = append(e.window, saltedItem[T]{h, t})
	e.hashes[h] = struct{}{}
	for len(e.window) > e.windowSize {
		delete(e.hashes, e.window[0].saltedHash)
		e.window = e.window[1:]
	}
	return true
}

// ProduceCodeword samples a degree and XORs that many window items into a
// fresh codeword.
func (e *Encoder[T]) ProduceCodeword() Codeword[T] {
	return e.produceCodeword(int(e.degreeDist.Uint64()))
}

func (e *Encoder[T]) produceCodeword(deg int) Codeword[T] {
	c := Codeword[T]{}
	if deg > len(e.window) {
		deg = len(e.window)
	}
	if deg == 0 {
		panic("trying to produce codeword with degree zero")
	}
	c.members = make([]uint32, deg)

	// Sample without replacement by partially shuffling the window; the
	// shuffle is reverted afterwards so the window keeps its insertion
	// order for eviction.
	n := len(e.window)
	e.shuffleHistory = e.shuffleHistory[:0]
	for i := 0; i < deg; i++ {
		r := e.r.Intn(n-i) + i
		e.shuffleHistory = append(e.shuffleHistory, r)
		e.window[i], e.window[r] = e.window[r], e.window[i]
		c.symbol = c.symbol.XOR(e.window[i].Item.data)
		c.members[i] = e.window[i].saltedHash
	}
	for i := deg - 1; i >= 0; i-- {
		e.window[i], e.window[e.shuffleHistory[i]] = e.window[e.shuffleHistory[i]], e.window[i]
	}
	return c
}
