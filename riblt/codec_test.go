package riblt

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/dchest/siphash"
)

const testSymbolSize = 256

type testSymbol [testSymbolSize]byte

func (d *testSymbol) XOR(t2 *testSymbol) *testSymbol {
	if d == nil {
		d = &testSymbol{}
	}
	for i := 0; i < testSymbolSize; i++ {
		d[i] ^= t2[i]
	}
	return d
}

func (d *testSymbol) Hash() uint64 {
	return siphash.Hash(567, 890, d[:])
}

func newTestSymbol(i uint64) *testSymbol {
	data := testSymbol{}
	binary.LittleEndian.PutUint64(data[0:8], i)
	return &data
}

// uint64Symbol is the smallest useful symbol: the value itself is the set
// element, XOR is bitwise, and the hash is splitmix64.
type uint64Symbol uint64

func (s uint64Symbol) XOR(t2 uint64Symbol) uint64Symbol {
	return s ^ t2
}

func (s uint64Symbol) Hash() uint64 {
	x := uint64(s) + 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func seq(lo, hi uint64) []uint64Symbol {
	var res []uint64Symbol
	for i := lo; i <= hi; i++ {
		res = append(res, uint64Symbol(i))
	}
	return res
}

// reconcile runs one full sender/receiver exchange: the encoder covers
// alice, the decoder holds bob, and coded symbols flow until the decoder
// reports success. Returns the two sides of the difference and the number
// of coded symbols consumed.
func reconcile(t *testing.T, alice, bob []uint64Symbol, maxSymbols int) (fwd, rev []HashedSymbol[uint64Symbol], n int) {
	t.Helper()
	enc := Encoder[uint64Symbol]{}
	for _, x := range alice {
		enc.AddSymbol(x)
	}
	dec := Decoder[uint64Symbol]{}
	for _, x := range bob {
		dec.AddSymbol(x)
	}
	for n = 1; n <= maxSymbols; n++ {
		dec.AddCodedSymbol(enc.ProduceNextCodedSymbol())
		dec.TryDecode()
		if dec.Decoded() {
			return dec.Remote(), dec.Local(), n
		}
	}
	t.Fatalf("failed to reconcile within %d coded symbols", maxSymbols)
	return nil, nil, 0
}

func toSet(symbols []HashedSymbol[uint64Symbol]) map[uint64Symbol]struct{} {
	res := make(map[uint64Symbol]struct{})
	for _, s := range symbols {
		res[s.Symbol] = struct{}{}
	}
	return res
}

func TestEncodeAndDecode(t *testing.T) {
	set := make(map[uint64]struct{})
	ndiff := 1024
	e := Encoder[*testSymbol]{}
	for i := 0; i < ndiff; i++ {
		s := NewHashedSymbol[*testSymbol](newTestSymbol(uint64(i)))
		e.AddHashedSymbol(s)
		set[s.Hash] = struct{}{}
	}
	dec := Decoder[*testSymbol]{}
	ncw := 0
	for {
		dec.AddCodedSymbol(e.ProduceNextCodedSymbol())
		ncw += 1
		dec.TryDecode()
		if dec.Decoded() {
			break
		}
		if ncw > ndiff*3 {
			t.Fatalf("not decoded after %d codewords", ncw)
		}
	}
	if len(dec.Local()) != 0 {
		t.Errorf("decoded %d local symbols from an empty local set", len(dec.Local()))
	}
	for _, v := range dec.Remote() {
		delete(set, v.Hash)
	}
	if len(set) != 0 {
		t.Errorf("missing symbols")
	}
	t.Logf("%d codewords until fully decoded", ncw)
}

func TestIdenticalSets(t *testing.T) {
	a := Encoder[uint64Symbol]{}
	b := Encoder[uint64Symbol]{}
	for _, x := range seq(1, 100) {
		a.AddSymbol(x)
		b.AddSymbol(x)
	}
	a.ExtendTo(20)
	b.ExtendTo(20)
	diff := a.Detach().Subtract(b.Detach())
	if !diff.Empty() {
		t.Fatal("subtracting sketches of identical sets left non-empty cells")
	}
	fwd, rev, ok := diff.Decode()
	if !ok || len(fwd) != 0 || len(rev) != 0 {
		t.Errorf("decoding an empty difference: ok=%v fwd=%d rev=%d", ok, len(fwd), len(rev))
	}
}

func TestSmallDifference(t *testing.T) {
	alice := seq(1, 100)
	bob := append(seq(1, 99), uint64Symbol(200))
	fwd, rev, n := reconcile(t, alice, bob, 100)
	if len(fwd) != 1 || fwd[0].Symbol != 100 {
		t.Errorf("wrong forward difference: %v", fwd)
	}
	if len(rev) != 1 || rev[0].Symbol != 200 {
		t.Errorf("wrong reverse difference: %v", rev)
	}
	t.Logf("difference of 2 reconciled with %d coded symbols", n)
}

func TestOneMissingElement(t *testing.T) {
	alice := seq(1, 1000)
	var bob []uint64Symbol
	for _, x := range alice {
		if x != 500 {
			bob = append(bob, x)
		}
	}
	fwd, rev, n := reconcile(t, alice, bob, 100)
	if len(fwd) != 1 || fwd[0].Symbol != 500 || len(rev) != 0 {
		t.Errorf("wrong difference: fwd=%v rev=%v", fwd, rev)
	}
	// a single-element difference leaves exactly that element in the first
	// cell, so one coded symbol suffices
	if n > 2 {
		t.Errorf("took %d coded symbols for a difference of 1", n)
	}
}

func TestOneSidedDifference(t *testing.T) {
	s := make(Sketch[uint64Symbol], 1)
	s.AddSymbol(uint64Symbol(42))
	if !s[0].IsPure() || s[0].Count != 1 || s[0].Symbol != 42 || s[0].Hash != uint64Symbol(42).Hash() {
		t.Fatalf("unexpected cell %+v", s[0])
	}
	empty := make(Sketch[uint64Symbol], 1)
	diff := empty.Subtract(s)
	if !diff[0].IsPure() || diff[0].Count != -1 {
		t.Fatalf("collapsed cell not a negative singleton: %+v", diff[0])
	}
	fwd, rev, ok := diff.Decode()
	if !ok || len(fwd) != 0 || len(rev) != 1 || rev[0].Symbol != 42 {
		t.Errorf("decode: ok=%v fwd=%v rev=%v", ok, fwd, rev)
	}
}

func TestLargeSetSwappedElements(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var alice, bob []uint64Symbol
	for i := 0; i < 10000; i++ {
		x := uint64Symbol(rng.Uint64() | 1)
		alice = append(alice, x)
		bob = append(bob, x)
	}
	// swap out 50 of bob's elements
	wantFwd := make(map[uint64Symbol]struct{})
	wantRev := make(map[uint64Symbol]struct{})
	for i := 0; i < 50; i++ {
		wantFwd[bob[i]] = struct{}{}
		bob[i] = uint64Symbol(rng.Uint64() | 1)
		wantRev[bob[i]] = struct{}{}
	}
	fwd, rev, n := reconcile(t, alice, bob, 400)
	if len(fwd) != 50 || len(rev) != 50 {
		t.Fatalf("recovered %d+%d symbols, want 50+50", len(fwd), len(rev))
	}
	for _, s := range fwd {
		if _, there := wantFwd[s.Symbol]; !there {
			t.Errorf("unexpected forward symbol %v", s.Symbol)
		}
	}
	for _, s := range rev {
		if _, there := wantRev[s.Symbol]; !there {
			t.Errorf("unexpected reverse symbol %v", s.Symbol)
		}
	}
	t.Logf("difference of 100 reconciled with %d coded symbols", n)
}

// Feeding the decoder in chunks, the success signal must flip from false to
// true exactly once and then stay true however many more coded symbols
// arrive.
func TestChunkedExtension(t *testing.T) {
	alice := seq(1, 500)
	bob := seq(21, 520) // 20 elements on each side of the difference
	enc := Encoder[uint64Symbol]{}
	for _, x := range alice {
		enc.AddSymbol(x)
	}
	dec := Decoder[uint64Symbol]{}
	for _, x := range bob {
		dec.AddSymbol(x)
	}
	const chunk = 10
	flips := 0
	decoded := false
	extra := 0
	for i := 0; i < 100; i++ {
		for j := 0; j < chunk; j++ {
			dec.AddCodedSymbol(enc.ProduceNextCodedSymbol())
		}
		dec.TryDecode()
		now := dec.Decoded()
		if now != decoded {
			if decoded {
				t.Fatalf("success signal regressed after chunk %d", i)
			}
			flips += 1
			decoded = now
		}
		if decoded {
			extra += 1
			if extra > 3 {
				break
			}
		}
	}
	if !decoded || flips != 1 {
		t.Errorf("decoded=%v flips=%d, want one flip to true", decoded, flips)
	}
	if len(dec.Remote()) != 20 || len(dec.Local()) != 20 {
		t.Errorf("recovered %d+%d symbols, want 20+20", len(dec.Remote()), len(dec.Local()))
	}
}

// The expected overhead is about 1.35 coded symbols per difference element;
// assert the mean over several trials stays under 2.
func TestOverhead(t *testing.T) {
	for _, d := range []int{1, 10, 100, 1000} {
		trials := 10
		if d >= 1000 {
			trials = 3
		}
		total := 0
		for trial := 0; trial < trials; trial++ {
			base := uint64(d*trial) * 1000000
			alice := make([]uint64Symbol, d)
			for i := range alice {
				alice[i] = uint64Symbol(base + uint64(i) + 1)
			}
			_, _, n := reconcile(t, alice, nil, d*5+10)
			total += n
		}
		if total > 2*d*trials {
			t.Errorf("d=%d: %d coded symbols over %d trials exceeds overhead bound 2", d, total, trials)
		}
		t.Logf("d=%d: mean overhead %.2f", d, float64(total)/float64(d*trials))
	}
}
