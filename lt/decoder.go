package lt

import (
	"hash"

	"github.com/dchest/siphash"
)

// pendingItem is an item referenced by received codewords but not yet
// decoded. It keeps back-pointers to every codeword waiting on it.
type pendingItem[T ItemData[T]] struct {
	saltedHash uint32
	blocking   []*PendingCodeword[T]
}

// markDecoded peels data from every codeword blocked by the item and
// appends the codewords that become decodable to decodableCws.
func (tx *pendingItem[T]) markDecoded(data T, decodableCws []*PendingCodeword[T]) []*PendingCodeword[T] {
	for idx, peelable := range tx.blocking {
		peelable.peelItem(tx, data)
		if len(peelable.members) <= 1 && !peelable.queued {
			peelable.queued = true
			decodableCws = append(decodableCws, peelable)
		}
		// drop the pointer so that peelable does not leak
		tx.blocking[idx] = nil
	}
	return decodableCws
}

// PendingCodeword is a received codeword with the already-known members
// peeled off.
type PendingCodeword[T ItemData[T]] struct {
	symbol  T
	members []*pendingItem[T]
	queued  bool
	decoded bool
}

// Decoded reports whether the codeword has been fully peeled.
func (cw *PendingCodeword[T]) Decoded() bool {
	return cw.decoded
}

// failToDecode drops cw after its last remaining member hashed to a value
// that does not match the codeword, i.e., a salted-hash conflict. It
// returns the salted hash of the blocking item and true when that item now
// blocks nothing else and can be forgotten.
func (cw *PendingCodeword[T]) failToDecode() (uint32, bool) {
	if len(cw.members) != 1 {
		panic("failing a codeword when it has more than 1 members")
	}
	stub := cw.members[0]
	for cwIdx, cwPtr := range stub.blocking {
		if cwPtr == cw {
			cw.members[0] = nil
			cw.members = cw.members[:0]
			l := len(stub.blocking)
			stub.blocking[cwIdx] = stub.blocking[l-1]
			stub.blocking[l-1] = nil
			stub.blocking = stub.blocking[:l-1]
			if len(stub.blocking) == 0 {
				return stub.saltedHash, true
			}
			return 0, false
		}
	}
	panic("unable to find blocked codeword in pending item")
}

// peelItem removes stub from the codeword's member list and XORs its data
// out of the symbol.
func (cw *PendingCodeword[T]) peelItem(stub *pendingItem[T], data T) {
	for idx, ptr := range cw.members {
		if ptr == stub {
			l := len(cw.members)
			cw.members[idx] = cw.members[l-1]
			cw.members[l-1] = nil
			cw.members = cw.members[:l-1]
			cw.symbol = cw.symbol.XOR(data)
			return
		}
	}
	panic("unable to peel decoded item from codeword pointing to it")
}

// Decoder peels LT codewords. It must be keyed with the same salt as the
// encoder that produced them.
type Decoder[T ItemData[T]] struct {
	receivedItems map[uint32]Item[T]
	pendingItems  map[uint32]*pendingItem[T]
	hasher        hash.Hash64
}

func NewDecoder[T ItemData[T]](salt [SaltSize]byte) *Decoder[T] {
	return &Decoder[T]{
		receivedItems: make(map[uint32]Item[T]),
		pendingItems:  make(map[uint32]*pendingItem[T]),
		hasher:        siphash.New(salt[:]),
	}
}

func (p *Decoder[T]) saltedHash(digest []byte) uint32 {
	p.hasher.Reset()
	p.hasher.Write(digest)
	return (uint32)(p.hasher.Sum64())
}

// AddCodeword peels the already-received members off rawCodeword and tries
// to decode. It returns the pending codeword and any items decoded as a
// result.
func (p *Decoder[T]) AddCodeword(rawCodeword Codeword[T]) (*PendingCodeword[T], []Item[T]) {
	cw := &PendingCodeword[T]{}
	cw.symbol = rawCodeword.symbol
	for _, member := range rawCodeword.members {
		pending, pendingExists := p.pendingItems[member]
		received, receivedExists := p.receivedItems[member]
		if !receivedExists {
			if !pendingExists {
				pending = &pendingItem[T]{saltedHash: member}
				p.pendingItems[member] = pending
			}
			pending.blocking = append(pending.blocking, cw)
			cw.members = append(cw.members, pending)
		} else {
			if pendingExists {
				panic("item is marked both received and pending")
			}
			cw.symbol = cw.symbol.XOR(received.data)
		}
	}
	if len(cw.members) <= 1 {
		cw.queued = true
		return cw, p.decodeCodewords([]*PendingCodeword[T]{cw})
	}
	return cw, nil
}

// AddItem gives the decoder an item obtained out of band. It returns any
// items decoded as a result.
func (p *Decoder[T]) AddItem(t Item[T]) []Item[T] {
	saltedHash := p.saltedHash(t.hash)
	if existing, there := p.receivedItems[saltedHash]; there {
		if !existing.data.Equals(t.data) {
			// salted-hash conflict with a known item; remember the newer one
			p.receivedItems[saltedHash] = t
		}
		return nil
	}
	p.receivedItems[saltedHash] = t
	if pending, there := p.pendingItems[saltedHash]; there {
		delete(p.pendingItems, saltedHash)
		return p.decodeCodewords(pending.markDecoded(t.data, nil))
	}
	return nil
}

// decodeCodewords drains the queue of codewords with at most one unknown
// member, decoding items and queueing codewords they unblock.
func (p *Decoder[T]) decodeCodewords(queue []*PendingCodeword[T]) []Item[T] {
	newItems := []Item[T]{}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if !c.queued {
			panic("decoding a codeword not queued")
		}
		if len(c.members) == 1 {
			stub := c.members[0]
			// copy the symbol out of the codeword: markDecoded peels it
			// from c too, which would clear a symbol sharing its buffer
			var zero T
			decoded := NewItem[T](zero.XOR(c.symbol))
			saltedHash := p.saltedHash(decoded.hash)
			if saltedHash != stub.saltedHash {
				// the symbol does not hash to the member the codeword
				// claims: a salted-hash conflict upstream
				if failedHash, orphaned := c.failToDecode(); orphaned {
					delete(p.pendingItems, failedHash)
				}
			} else {
				newItems = append(newItems, decoded)
				delete(p.pendingItems, saltedHash)
				p.receivedItems[saltedHash] = decoded
				queue = stub.markDecoded(decoded.data, queue)
			}
		}
		// len 0: already fully peeled, nothing to do
		c.decoded = true
	}
	return newItems
}
