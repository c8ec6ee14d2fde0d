package riblt

import (
	"testing"
)

func TestEmptySketch(t *testing.T) {
	s := make(Sketch[uint64Symbol], 10)
	if !s.Empty() {
		t.Fatal("fresh sketch has non-empty cells")
	}
	for _, c := range s {
		if c.Count != 0 || c.Hash != 0 || c.Symbol != 0 {
			t.Fatalf("fresh cell not the identity: %+v", c)
		}
	}
	fwd, rev, ok := s.Decode()
	if !ok || len(fwd) != 0 || len(rev) != 0 {
		t.Errorf("decoding an empty sketch: ok=%v fwd=%d rev=%d", ok, len(fwd), len(rev))
	}
}

func TestAddRemoveInverse(t *testing.T) {
	const m = 64
	s1 := make(Sketch[uint64Symbol], m)
	s2 := make(Sketch[uint64Symbol], m)
	for _, x := range seq(1, 50) {
		s1.AddSymbol(x)
		s2.AddSymbol(x)
	}
	s2.AddSymbol(uint64Symbol(999))
	s2.RemoveSymbol(uint64Symbol(999))
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("cell %d differs after add/remove round trip: %+v != %+v", i, s1[i], s2[i])
		}
	}
}

func TestAddCommutes(t *testing.T) {
	const m = 32
	s1 := make(Sketch[uint64Symbol], m)
	s2 := make(Sketch[uint64Symbol], m)
	x, y := uint64Symbol(7), uint64Symbol(19)
	s1.AddSymbol(x)
	s1.AddSymbol(y)
	s2.AddSymbol(y)
	s2.AddSymbol(x)
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("cell %d depends on insertion order: %+v != %+v", i, s1[i], s2[i])
		}
	}
}

// An encoder prefix over a set must equal a sketch of the same length with
// every element added.
func TestEncoderSketchEquivalence(t *testing.T) {
	const m = 100
	set := seq(1, 200)
	e := Encoder[uint64Symbol]{}
	s := make(Sketch[uint64Symbol], m)
	for _, x := range set {
		e.AddSymbol(x)
		s.AddSymbol(x)
	}
	e.ExtendTo(m)
	prefix := e.Detach()
	if len(prefix) != m {
		t.Fatalf("detached prefix has length %d, want %d", len(prefix), m)
	}
	for i := range s {
		if prefix[i] != s[i] {
			t.Fatalf("cell %d differs between encoder and sketch: %+v != %+v", i, prefix[i], s[i])
		}
	}
}

func TestSelfSubtract(t *testing.T) {
	build := func() Sketch[uint64Symbol] {
		s := make(Sketch[uint64Symbol], 40)
		for _, x := range seq(100, 160) {
			s.AddSymbol(x)
		}
		return s
	}
	diff := build().Subtract(build())
	if !diff.Empty() {
		t.Fatal("subtracting a sketch from itself left non-empty cells")
	}
}

func TestCombineDisjoint(t *testing.T) {
	const m = 50
	sa := make(Sketch[uint64Symbol], m)
	sb := make(Sketch[uint64Symbol], m)
	sab := make(Sketch[uint64Symbol], m)
	for _, x := range seq(1, 30) {
		sa.AddSymbol(x)
		sab.AddSymbol(x)
	}
	for _, x := range seq(31, 60) {
		sb.AddSymbol(x)
		sab.AddSymbol(x)
	}
	combined := sa.Combine(sb)
	for i := range sab {
		if combined[i] != sab[i] {
			t.Fatalf("cell %d of combined sketch differs: %+v != %+v", i, combined[i], sab[i])
		}
	}
}

func TestTruncatingCombine(t *testing.T) {
	long := make(Sketch[uint64Symbol], 10)
	short := make(Sketch[uint64Symbol], 6)
	long.AddSymbol(uint64Symbol(3))
	short.AddSymbol(uint64Symbol(5))
	res := long.Combine(short)
	if len(res) != 6 {
		t.Fatalf("combining lengths 10 and 6 gave length %d", len(res))
	}
	res = make(Sketch[uint64Symbol], 6).Subtract(make(Sketch[uint64Symbol], 9))
	if len(res) != 6 {
		t.Fatalf("subtracting lengths 6 and 9 gave length %d", len(res))
	}
}

// A corrupted cell can never be peeled, so decoding must report failure
// even though every healthy cell decodes.
func TestResidualDetectsCorruption(t *testing.T) {
	s := make(Sketch[uint64Symbol], 8)
	for _, x := range seq(1, 3) {
		s.AddSymbol(x)
	}
	s[5].Hash ^= 1
	_, _, ok := s.Decode()
	if ok {
		t.Error("decode reported success on a corrupted sketch")
	}
}
