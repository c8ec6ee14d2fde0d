package main

import (
	"encoding/binary"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"
)

type transaction struct {
	idx uint64
	ts  time.Duration
}

func (d transaction) XOR(t2 transaction) transaction {
	return transaction{d.idx ^ t2.idx, d.ts ^ t2.ts}
}

func (d transaction) Hash() uint64 {
	var serialized [8]byte
	binary.LittleEndian.PutUint64(serialized[0:8], d.idx)
	return siphash.Hash(567, 890, serialized[:])
}

// ltPayload adapts a transaction to the lt codec, which identifies items by
// a full digest rather than a 64-bit hash.
type ltPayload struct {
	tx transaction
}

func (d ltPayload) XOR(t2 ltPayload) ltPayload {
	return ltPayload{d.tx.XOR(t2.tx)}
}

func (d ltPayload) Equals(t2 ltPayload) bool {
	return d.tx == t2.tx
}

func (d ltPayload) Hash() []byte {
	var serialized [16]byte
	binary.LittleEndian.PutUint64(serialized[0:8], d.tx.idx)
	binary.LittleEndian.PutUint64(serialized[8:16], uint64(d.tx.ts))
	digest := blake2b.Sum256(serialized[:])
	return digest[:]
}

type transactionGenerator struct {
	last uint64
}

func (t *transactionGenerator) generate(at time.Duration) transaction {
	t.last += 1
	return transaction{t.last, at}
}

type distributionSketch struct {
	sketch *ddsketch.DDSketch
	warmup time.Duration
}

func newDistributionSketch(warmup time.Duration) *distributionSketch {
	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		panic(err)
	}
	return &distributionSketch{sketch, warmup}
}

func (t *distributionSketch) recordTxLatency(tx transaction, tp time.Duration) {
	if t == nil {
		return
	}
	if t.warmup > tp {
		return
	}
	t.sketch.Add(tp.Seconds() - tx.ts.Seconds())
}

func (t *distributionSketch) getQuantiles(q []float64) []float64 {
	res, err := t.sketch.GetValuesAtQuantiles(q)
	if err != nil {
		return make([]float64, len(q))
	}
	return res
}
