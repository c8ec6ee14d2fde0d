package lt

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/yangl1996/soliton"
)

var testSalt = [SaltSize]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

const simpleDataSize = 128

type simpleData [simpleDataSize]byte

func (d *simpleData) XOR(t2 *simpleData) *simpleData {
	if d == nil {
		d = &simpleData{}
	}
	for i := 0; i < simpleDataSize; i++ {
		d[i] ^= t2[i]
	}
	return d
}

func (d *simpleData) Hash() []byte {
	return d[:]
}

func (d *simpleData) Equals(t2 *simpleData) bool {
	for i := 0; i < simpleDataSize; i++ {
		if d[i] != t2[i] {
			return false
		}
	}
	return true
}

func newSimpleData(i uint64) *simpleData {
	data := simpleData{}
	binary.LittleEndian.PutUint64(data[0:8], i)
	return &data
}

func TestEncodeAndDecode(t *testing.T) {
	dist := soliton.NewRobustSoliton(rand.New(rand.NewSource(0)), 500, 0.03, 0.5)
	e := NewEncoder[*simpleData](rand.New(rand.NewSource(0)), testSalt, dist, 500)
	for i := 0; i < 500; i++ {
		e.AddItem(NewItem[*simpleData](newSimpleData(uint64(i))))
	}
	dec := NewDecoder[*simpleData](testSalt)
	ncw := 0
	ndec := 0
	for ndec < 500 {
		c := e.ProduceCodeword()
		_, newItems := dec.AddCodeword(c)
		ncw += 1
		ndec += len(newItems)
		if ncw > 5000 {
			t.Fatalf("decoded %d of 500 items after %d codewords", ndec, ncw)
		}
	}
	for _, tx := range e.window {
		if _, there := dec.receivedItems[tx.saltedHash]; !there {
			t.Error("missing item in the decoder")
		}
	}
	t.Logf("%d codewords until fully decoded", ncw)
}

func TestDuplicateAdd(t *testing.T) {
	dist := soliton.NewSoliton(rand.New(rand.NewSource(1)), 10)
	e := NewEncoder[*simpleData](rand.New(rand.NewSource(1)), testSalt, dist, 10)
	if !e.AddItem(NewItem[*simpleData](newSimpleData(7))) {
		t.Fatal("first add rejected")
	}
	if e.AddItem(NewItem[*simpleData](newSimpleData(7))) {
		t.Error("duplicate add accepted")
	}
}

func TestSideChannelItems(t *testing.T) {
	dist := soliton.NewRobustSoliton(rand.New(rand.NewSource(2)), 100, 0.03, 0.5)
	e := NewEncoder[*simpleData](rand.New(rand.NewSource(2)), testSalt, dist, 100)
	items := make([]Item[*simpleData], 100)
	for i := range items {
		items[i] = NewItem[*simpleData](newSimpleData(uint64(i)))
		e.AddItem(items[i])
	}
	dec := NewDecoder[*simpleData](testSalt)
	// the decoder learns half of the items out of band
	for i := 0; i < 50; i++ {
		dec.AddItem(items[i])
	}
	ndec := 50
	ncw := 0
	for ndec < 100 {
		_, newItems := dec.AddCodeword(e.ProduceCodeword())
		ndec += len(newItems)
		ncw += 1
		if ncw > 2000 {
			t.Fatalf("decoded %d of 100 items after %d codewords", ndec, ncw)
		}
	}
	t.Logf("%d codewords to finish with 50 items known ahead", ncw)
}
